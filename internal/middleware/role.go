package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that enforces that the authenticated user
// holds one of the allowed roles. It reads the role stored by BearerAuth, so
// it must always be registered after the bearer check, never before.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok {
				return failJSON(c, http.StatusUnauthorized, "Not authorized to access this route")
			}
			if !allowed[role] {
				return failJSON(c, http.StatusForbidden,
					fmt.Sprintf("User role '%s' is not authorized to access this route", role))
			}
			return next(c)
		}
	}
}
