// Package handler implements the HTTP boundary: request binding and
// validation, error-to-status mapping, and response shaping. Handlers bind
// input, validate it (returning immediately on the first failure), call a
// service operation and map its error to a stable status. Unanticipated
// errors are logged with context and surface as an opaque 500.
package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/repository"
	"github.com/mkarel/portfolio-api/internal/service"
)

// writeServiceError maps a domain failure to its outward status. The wrong
// provider and provider conflict errors put the provider name in the body
// on purpose (documented UX trade-off); nothing else internal leaks.
func writeServiceError(c echo.Context, err error) error {
	var wrongProvider *service.WrongProviderError
	var conflict *service.ProviderConflictError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrNotVerified):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "email not verified"})
	case errors.Is(err, service.ErrInvalidVerifyToken):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid verification token"})
	case errors.Is(err, service.ErrInvalidResetToken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	case errors.Is(err, service.ErrPasswordAlreadySet):
		return c.JSON(http.StatusConflict, echo.Map{"error": "password already set"})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.As(err, &wrongProvider):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": wrongProvider.Error()})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error()})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrSlugExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slug already exists"})
	case service.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		log.Printf("handler: %s %s failed: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
