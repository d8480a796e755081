package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/model"
	"github.com/mkarel/portfolio-api/internal/repository"
	"github.com/mkarel/portfolio-api/internal/service"
)

// AuthHandler bundles dependencies for the local authentication endpoints.
type AuthHandler struct {
	Identity *service.IdentityService
}

func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{Identity: identity}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Picture  string `json:"picture"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type sessionResp struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Expires time.Time  `json:"expires"`
}

const minPasswordLen = 8

// Register creates a local account pending email verification. Each
// validation failure responds and returns immediately; nothing falls
// through to further processing.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Identity.Register(ctx, req.Email, req.Name, req.Password, req.Picture)
	if err != nil {
		return writeServiceError(c, err)
	}

	// Verification email delivery happens out of band; the token never
	// appears in the response.
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    u.Sanitized(),
		"message": "registration successful, please verify your email",
	})
}

// Login authenticates a local account and returns a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, tok, exp, err := h.Identity.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp{User: u.Sanitized(), Token: tok, Expires: exp})
}

// VerifyEmail consumes a one-time verification token delivered by email.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Identity.VerifyEmail(ctx, token)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u.Sanitized(), "message": "email verified"})
}

// ForgotPassword starts the reset flow. The response body is identical
// whether or not the email exists so the endpoint cannot be used to
// enumerate accounts; internal failures (including unknown email) are
// logged and swallowed.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, _, err := h.Identity.RequestPasswordReset(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("auth: password reset request failed: %v", err)
		}
	} else {
		// Reset email delivery happens out of band; never echo the token.
		log.Printf("auth: password reset requested for user %d", u.ID)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "if that email exists, a reset link has been sent",
	})
}

// ResetPassword consumes a reset token and stores the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Identity.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// reqContext bounds database work for a single request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
