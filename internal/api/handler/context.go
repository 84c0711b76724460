package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ebms/billing-system/internal/core/domain"
)

// Context keys set by middleware.Auth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// ctxActor extracts the caller injected by the Auth middleware and fails fast
// when the claims are missing or name an unknown role.
func ctxActor(c echo.Context) (domain.Actor, error) {
	id, _ := c.Get(CtxUserID).(string)
	role, _ := c.Get(CtxRole).(string)
	actor := domain.Actor{ID: id, Role: domain.Role(role)}
	if !actor.Authenticated() {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Both failures surface as 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
