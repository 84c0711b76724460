package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ebms/billing-system/internal/api/handler"
	"github.com/ebms/billing-system/internal/core/domain"
)

// RBAC rejects callers whose role is not listed. It is a coarse route gate;
// ownership checks stay in the services.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(handler.CtxRole).(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
