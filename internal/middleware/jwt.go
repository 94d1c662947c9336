package middleware // package middleware contains reusable HTTP middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-manager-api/internal/model"
	"github.com/iliyamo/task-manager-api/internal/repository"
	"github.com/iliyamo/task-manager-api/internal/utils"
)

// Context keys populated by BearerAuth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxEmail  = "email"
	CtxName   = "name"
)

// UserLoader is the slice of the user repository the bearer check needs to
// confirm the token's subject still exists and is active.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BearerAuth returns middleware that validates the Authorization header,
// verifies the access token against the access secret, loads the claimed
// user and stores its identity in the request context. Tokens for deleted
// accounts yield 404 and for deactivated accounts 403, so deactivation takes
// effect immediately even while previously issued tokens are still signed
// correctly.
func BearerAuth(secret string, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return failJSON(c, http.StatusUnauthorized, "Not authorized to access this route")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseToken(raw, secret)
			if err != nil {
				if errors.Is(err, utils.ErrExpiredToken) {
					return failJSON(c, http.StatusUnauthorized, "Token expired")
				}
				return failJSON(c, http.StatusUnauthorized, "Invalid token")
			}

			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return failJSON(c, http.StatusNotFound, "User not found")
				}
				return failJSON(c, http.StatusInternalServerError, "Server error")
			}
			if !u.IsActive {
				return failJSON(c, http.StatusForbidden, "User account is deactivated")
			}

			c.Set(CtxUserID, u.ID)
			c.Set(CtxRole, u.Role)
			c.Set(CtxEmail, u.Email)
			c.Set(CtxName, u.Name)
			return next(c)
		}
	}
}

// failJSON writes the shared response envelope for middleware rejections.
func failJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}
