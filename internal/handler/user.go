package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/middleware"
	"github.com/mkarel/portfolio-api/internal/model"
	"github.com/mkarel/portfolio-api/internal/repository"
	"github.com/mkarel/portfolio-api/internal/service"
)

// UserHandler covers profile management for the authenticated user and the
// admin user endpoints.
type UserHandler struct {
	Users    *repository.UserRepo
	Identity *service.IdentityService
}

func NewUserHandler(users *repository.UserRepo, identity *service.IdentityService) *UserHandler {
	return &UserHandler{Users: users, Identity: identity}
}

type updateProfileReq struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}
type setPasswordReq struct {
	Password string `json:"password"`
}
type changePasswordReq struct {
	Current  string `json:"current_password"`
	Password string `json:"new_password"`
}
type adminUserReq struct {
	Role    *string `json:"role"`
	IsAdmin *bool   `json:"is_admin"`
}

// Me returns the authenticated user's record.
func (h *UserHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe applies name/avatar changes to the caller's profile.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, caller.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
		}
		u.Name = name
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}
	if err := h.Users.Update(ctx, u); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, u.Sanitized())
}

// DeleteMe hard-deletes the caller's account. Outstanding session tokens
// die at the authorization gate's re-fetch from then on.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()
	if err := h.Users.Delete(ctx, caller.ID); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPassword gives an OAuth-only account a local password (first set
// only).
func (h *UserHandler) SetPassword(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req setPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()
	if err := h.Identity.SetPassword(ctx, caller.ID, req.Password); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password set"})
}

// ChangePassword replaces the caller's password after verifying the
// current one.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Current == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password required"})
	}
	if len(req.Password) < minPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()
	if err := h.Identity.ChangePassword(ctx, caller.ID, req.Current, req.Password); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// ListUsers returns all users for the admin view.
func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser lets an admin edit another user's role and admin flag. The
// two fields are independently settable on purpose.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req adminUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Role != nil && *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be user or admin"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsAdmin != nil {
		u.IsAdmin = *req.IsAdmin
	}
	if err := h.Users.Update(ctx, u); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, u.Sanitized())
}

// DeleteUser lets an admin remove an account.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
