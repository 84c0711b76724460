package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, profile ports.ProfileInput, password string) (string, *domain.PublicUser, error) {
			if profile.Email != "asha@example.com" || profile.MeterNumber != "M-100" || password != "secret1" {
				t.Fatalf("unexpected args: %+v %s", profile, password)
			}
			return "tok", &domain.PublicUser{ID: "u1", Email: profile.Email, Role: domain.RoleCustomer}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"Asha","address":"12 Lane","email":"asha@example.com","meter_number":"M-100","password":"secret1"}`,
		domain.Actor{})

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" {
		t.Fatalf("unexpected token: %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "CUSTOMER" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})
	c, _ := newTestContext(http.MethodPost, "/auth/register", `{"name":"Asha","email":"not-an-email"}`, domain.Actor{})

	err := handler.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.ProfileInput, string) (string, *domain.PublicUser, error) {
			return "", nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)
	c, _ := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"Asha","address":"12 Lane","email":"asha@example.com","meter_number":"M-100","password":"secret1"}`,
		domain.Actor{})

	if err := handler.Register(c); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, identifier, password string, role domain.Role) (string, *domain.PublicUser, error) {
			if identifier != "M-100" || role != domain.RoleCustomer {
				return "", nil, domain.ErrInvalidCredentials
			}
			return "tok", &domain.PublicUser{ID: "u1", Role: role}, nil
		},
	}
	handler := NewAuthHandler(stub)

	t.Run("success", func(t *testing.T) {
		c, rec := newTestContext(http.MethodPost, "/auth/login",
			`{"identifier":"M-100","password":"secret1","role":"CUSTOMER"}`, domain.Actor{})
		if err := handler.Login(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		c, _ := newTestContext(http.MethodPost, "/auth/login",
			`{"identifier":"M-100","password":"secret1","role":"ADMIN"}`, domain.Actor{})
		if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials, got %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		c, _ := newTestContext(http.MethodPost, "/auth/login",
			`{"identifier":"M-100","password":"secret1","role":"ROOT"}`, domain.Actor{})
		var he *echo.HTTPError
		if err := handler.Login(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %v", err)
		}
	})
}

func TestLoginResult(t *testing.T) {
	cases := map[string]error{
		"success":             nil,
		"locked":              domain.ErrTooManyAttempts,
		"invalid_credentials": domain.ErrInvalidCredentials,
		"error":               errors.New("boom"),
	}
	for want, err := range cases {
		if got := loginResult(err); got != want {
			t.Errorf("loginResult(%v) = %s, want %s", err, got, want)
		}
	}
}
