package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

var (
	adminActor    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	customerActor = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
)

// newTestContext builds an echo context with the validator registered and,
// when actor is authenticated, the claims the Auth middleware would set.
func newTestContext(method, target, body string, actor domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor.Authenticated() {
		c.Set(CtxUserID, actor.ID)
		c.Set(CtxRole, string(actor.Role))
	}
	return c, rec
}

type stubAuthService struct {
	registerFn func(ctx context.Context, profile ports.ProfileInput, password string) (string, *domain.PublicUser, error)
	loginFn    func(ctx context.Context, identifier, password string, role domain.Role) (string, *domain.PublicUser, error)
}

func (s *stubAuthService) Register(ctx context.Context, profile ports.ProfileInput, password string) (string, *domain.PublicUser, error) {
	return s.registerFn(ctx, profile, password)
}

func (s *stubAuthService) Login(ctx context.Context, identifier, password string, role domain.Role) (string, *domain.PublicUser, error) {
	return s.loginFn(ctx, identifier, password, role)
}

// stubUserService implements ports.UserService; unset funcs panic so a test
// notices an unexpected call.
type stubUserService struct {
	ports.UserService
	getFn            func(ctx context.Context, actor domain.Actor, id string) (*domain.PublicUser, error)
	listFn           func(ctx context.Context, actor domain.Actor, role domain.Role) ([]*domain.PublicUser, error)
	createFn         func(ctx context.Context, actor domain.Actor, profile ports.ProfileInput, password string) (*domain.PublicUser, error)
	updateFn         func(ctx context.Context, actor domain.Actor, id string, update ports.ProfileUpdate) (*domain.PublicUser, error)
	changePasswordFn func(ctx context.Context, actor domain.Actor, id string, change ports.PasswordChange) error
}

func (s *stubUserService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.PublicUser, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubUserService) List(ctx context.Context, actor domain.Actor, role domain.Role) ([]*domain.PublicUser, error) {
	return s.listFn(ctx, actor, role)
}

func (s *stubUserService) CreateCustomer(ctx context.Context, actor domain.Actor, profile ports.ProfileInput, password string) (*domain.PublicUser, error) {
	return s.createFn(ctx, actor, profile, password)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, actor domain.Actor, id string, update ports.ProfileUpdate) (*domain.PublicUser, error) {
	return s.updateFn(ctx, actor, id, update)
}

func (s *stubUserService) ChangePassword(ctx context.Context, actor domain.Actor, id string, change ports.PasswordChange) error {
	return s.changePasswordFn(ctx, actor, id, change)
}

type stubBillService struct {
	generateFn  func(ctx context.Context, actor domain.Actor, in ports.GenerateBillInput) (*domain.Bill, error)
	payFn       func(ctx context.Context, actor domain.Actor, id string) (*domain.Bill, error)
	setStatusFn func(ctx context.Context, actor domain.Actor, in ports.SetStatusInput) (*domain.Bill, error)
	getFn       func(ctx context.Context, actor domain.Actor, id string) (*domain.Bill, error)
	listFn      func(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error)
}

func (s *stubBillService) Generate(ctx context.Context, actor domain.Actor, in ports.GenerateBillInput) (*domain.Bill, error) {
	return s.generateFn(ctx, actor, in)
}

func (s *stubBillService) Pay(ctx context.Context, actor domain.Actor, id string) (*domain.Bill, error) {
	return s.payFn(ctx, actor, id)
}

func (s *stubBillService) SetStatus(ctx context.Context, actor domain.Actor, in ports.SetStatusInput) (*domain.Bill, error) {
	return s.setStatusFn(ctx, actor, in)
}

func (s *stubBillService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Bill, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubBillService) List(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error) {
	return s.listFn(ctx, actor)
}
