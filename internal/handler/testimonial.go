package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/middleware"
	"github.com/mkarel/portfolio-api/internal/model"
	"github.com/mkarel/portfolio-api/internal/service"
)

// TestimonialHandler fronts the moderation workflow. Rating and content
// bounds are enforced here, before anything reaches the service.
type TestimonialHandler struct {
	Svc *service.TestimonialService
}

func NewTestimonialHandler(svc *service.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{Svc: svc}
}

type createTestimonialReq struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Company  string `json:"company"`
	Content  string `json:"content"`
	Rating   int    `json:"rating"`
}

func validRating(r int) bool {
	return r >= model.RatingMin && r <= model.RatingMax
}

// ListApproved returns the public, approved testimonials.
func (h *TestimonialHandler) ListApproved(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	ts, err := h.Svc.ListApproved(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}

// ListAll returns every testimonial, approved or not, for the admin view.
func (h *TestimonialHandler) ListAll(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	ts, err := h.Svc.ListAll(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}

// Create stores a new, unapproved testimonial for the authenticated user.
func (h *TestimonialHandler) Create(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	var req createTestimonialReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if len(req.Content) > model.MaxTestimonialContentLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content too long"})
	}
	if !validRating(req.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Svc.Create(ctx, caller, model.Testimonial{
		AuthorName: strings.TrimSpace(req.Name),
		Position:   strings.TrimSpace(req.Position),
		Company:    strings.TrimSpace(req.Company),
		Content:    req.Content,
		Rating:     req.Rating,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Update applies an allow-listed merge. Ownership/admin rules and the
// approval restriction live in the service; bounds are checked here.
func (h *TestimonialHandler) Update(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var upd service.TestimonialUpdate
	if err := c.Bind(&upd); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if upd.Rating != nil && !validRating(*upd.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if upd.Content != nil {
		trimmed := strings.TrimSpace(*upd.Content)
		if trimmed == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "content cannot be empty"})
		}
		if len(trimmed) > model.MaxTestimonialContentLen {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "content too long"})
		}
		upd.Content = &trimmed
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Svc.Update(ctx, caller, id, upd)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete removes a testimonial under the owner-or-admin rule.
func (h *TestimonialHandler) Delete(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Svc.Delete(ctx, caller, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
