// Package middleware provides the authorization gate and response caching
// applied in front of the handlers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/auth"
	"github.com/mkarel/portfolio-api/internal/model"
	"github.com/mkarel/portfolio-api/internal/repository"
	"github.com/mkarel/portfolio-api/internal/service"
)

// userContextKey is where the resolved user record is attached for
// downstream handlers.
const userContextKey = "user"

// AuthRequired returns the authorization gate. It extracts the Bearer
// token, verifies it with the token service, then re-fetches the user by
// the token's subject — claims are not trusted beyond that lookup, so a
// deleted account is rejected even while its token is still unexpired.
// Expired, tampered and malformed tokens all collapse to the same 401.
// On success the sanitized user record is attached to the request context.
func AuthRequired(tokens *auth.TokenService, users service.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			u, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth lookup failed"})
			}

			c.Set(userContextKey, u.Sanitized())
			return next(c)
		}
	}
}

// RequireAdmin enforces the second-stage admin gate. It must run after
// AuthRequired has populated the context. Either the IsAdmin flag or an
// "admin" role grants access; the two fields are independently settable and
// both are honored here.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !u.IsAdmin && u.Role != model.RoleAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user attached by AuthRequired, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userContextKey).(model.User)
	return u, ok
}
