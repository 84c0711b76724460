package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
	"github.com/ebms/billing-system/internal/core/service"
	"github.com/ebms/billing-system/internal/infrastructure/db/memory"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()

	users := service.NewUserService(store.Users(), "password123", log, service.WithBcryptCost(bcrypt.MinCost))
	auth := service.NewAuthService(users, nil, testSecret, time.Hour, log)
	bills := service.NewBillService(store.Bills(), store.Users(), log)

	if _, _, err := users.EnsureAdmin(context.Background(), ports.ProfileInput{
		Name: "Root", Address: "HQ", Email: "admin@example.com",
	}, "adminpass"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	return NewRouter(Services{Auth: auth, Users: users, Bills: bills, Tariff: domain.DefaultTariff}, Options{
		JWTSecret:     testSecret,
		AuthRateLimit: 1000,
		AuthRateBurst: 1000,
		Metrics:       prometheus.NewRegistry(),
		Log:           log,
	})
}

func do(t *testing.T, e *echo.Echo, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestRouter_BillingFlow(t *testing.T) {
	e := newTestRouter(t)

	// Customer self-registers and receives a token.
	rec, body := do(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Asha","address":"12 Lane","email":"Asha@Example.com","meter_number":"M-100","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	customerToken, _ := body["token"].(string)
	customerID, _ := body["user"].(map[string]any)["id"].(string)

	// Duplicate email is a conflict.
	rec, _ = do(t, e, http.MethodPost, "/auth/register", "",
		`{"name":"Other","address":"1 Road","email":"asha@example.com","meter_number":"M-101","password":"secret1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	// Admin credentials do not work under the customer role.
	rec, _ = do(t, e, http.MethodPost, "/auth/login", "",
		`{"identifier":"admin@example.com","password":"adminpass","role":"CUSTOMER"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("cross-role login: expected 401, got %d", rec.Code)
	}

	rec, body = do(t, e, http.MethodPost, "/auth/login", "",
		`{"identifier":"admin@example.com","password":"adminpass","role":"ADMIN"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login: expected 200, got %d", rec.Code)
	}
	adminToken, _ := body["token"].(string)

	// Customers cannot generate bills.
	rec, _ = do(t, e, http.MethodPost, "/v1/bills", customerToken,
		`{"customer_id":"`+customerID+`","period":"2024-02","units_consumed":150}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer generate: expected 403, got %d", rec.Code)
	}

	rec, body = do(t, e, http.MethodPost, "/v1/bills", adminToken,
		`{"customer_id":"`+customerID+`","period":"2024-02","units_consumed":150}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if body["amount"] != "850.00" || body["status"] != "UNPAID" {
		t.Fatalf("unexpected bill %v", body)
	}
	billID, _ := body["id"].(string)

	rec, body = do(t, e, http.MethodGet, "/v1/bills", customerToken, "")
	if rec.Code != http.StatusOK || body["total"] != float64(1) {
		t.Fatalf("customer list: %d %v", rec.Code, body)
	}

	rec, body = do(t, e, http.MethodPost, "/v1/bills/"+billID+"/pay", customerToken, "")
	if rec.Code != http.StatusOK || body["status"] != "PAID" {
		t.Fatalf("pay: %d %v", rec.Code, body)
	}
	if payments, _ := body["payments"].([]any); len(payments) != 1 {
		t.Fatalf("expected one payment, got %v", body["payments"])
	}

	rec, _ = do(t, e, http.MethodPost, "/v1/bills/"+billID+"/pay", customerToken, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second pay: expected 409, got %d", rec.Code)
	}

	rec, body = do(t, e, http.MethodPut, "/v1/bills/"+billID+"/status", adminToken, `{"status":"UNPAID"}`)
	if rec.Code != http.StatusOK || body["status"] != "UNPAID" {
		t.Fatalf("revert: %d %v", rec.Code, body)
	}
	if payments, _ := body["payments"].([]any); len(payments) != 0 {
		t.Fatalf("revert should clear payments, got %v", body["payments"])
	}

	rec, body = do(t, e, http.MethodGet, "/v1/tariff?units=250", customerToken, "")
	if rec.Code != http.StatusOK || body["amount"] != "1700.00" {
		t.Fatalf("tariff: %d %v", rec.Code, body)
	}
}

func TestRouter_CustomerIsolation(t *testing.T) {
	e := newTestRouter(t)

	register := func(email, meter string) (string, string) {
		rec, body := do(t, e, http.MethodPost, "/auth/register", "",
			`{"name":"C","address":"A","email":"`+email+`","meter_number":"`+meter+`","password":"secret1"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("register %s: %d", email, rec.Code)
		}
		token, _ := body["token"].(string)
		id, _ := body["user"].(map[string]any)["id"].(string)
		return token, id
	}
	_, idA := register("a@example.com", "M-1")
	tokenB, idB := register("b@example.com", "M-2")

	_, body := do(t, e, http.MethodPost, "/auth/login", "",
		`{"identifier":"admin@example.com","password":"adminpass","role":"ADMIN"}`)
	adminToken, _ := body["token"].(string)

	_, body = do(t, e, http.MethodPost, "/v1/bills", adminToken,
		`{"customer_id":"`+idA+`","period":"2024-02","units_consumed":10}`)
	billA, _ := body["id"].(string)

	if rec, _ := do(t, e, http.MethodPost, "/v1/bills/"+billA+"/pay", tokenB, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign pay: expected 403, got %d", rec.Code)
	}
	if rec, _ := do(t, e, http.MethodGet, "/v1/bills/"+billA, tokenB, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign read: expected 403, got %d", rec.Code)
	}
	if rec, body := do(t, e, http.MethodGet, "/v1/bills", tokenB, ""); rec.Code != http.StatusOK || body["total"] != float64(0) {
		t.Fatalf("B should see no bills: %d %v", rec.Code, body)
	}
	if rec, _ := do(t, e, http.MethodGet, "/v1/users/"+idA, tokenB, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign profile: expected 403, got %d", rec.Code)
	}
	if rec, _ := do(t, e, http.MethodGet, "/v1/users", tokenB, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("customer user list: expected 403, got %d", rec.Code)
	}
	if rec, body := do(t, e, http.MethodGet, "/v1/me", tokenB, ""); rec.Code != http.StatusOK || body["id"] != idB {
		t.Fatalf("me: %d %v", rec.Code, body)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	e := newTestRouter(t)

	if rec, _ := do(t, e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec, _ := do(t, e, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready with no dependencies: %d", rec.Code)
	}
	if rec, _ := do(t, e, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if rec, _ := do(t, e, http.MethodGet, "/v1/bills", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous bills: expected 401, got %d", rec.Code)
	}
}
