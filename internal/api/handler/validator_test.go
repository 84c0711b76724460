package handler

import (
	"strings"
	"testing"
)

func TestValidator_MessagesUseJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&registerRequest{Name: "Asha", Address: "x", Email: "nope", Password: "abc"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"email must be a valid email",
		"meter_number is required",
		"password must be at least 6 characters",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidator_OneOf(t *testing.T) {
	err := NewValidator().Validate(&loginRequest{Identifier: "a", Password: "b", Role: "ROOT"})
	if err == nil || !strings.Contains(err.Error(), "role must be one of: ADMIN, CUSTOMER") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_Passes(t *testing.T) {
	units := int64(0)
	if err := NewValidator().Validate(&generateBillRequest{CustomerID: "c", Period: "2024-01", UnitsConsumed: &units}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
