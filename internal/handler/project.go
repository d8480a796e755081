package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/model"
	"github.com/mkarel/portfolio-api/internal/repository"
)

// ProjectHandler implements the project CRUD: public reads, admin writes.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

type projectReq struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	ImageURL    string `json:"image_url"`
	RepoURL     string `json:"repo_url"`
	DemoURL     string `json:"demo_url"`
	Featured    bool   `json:"featured"`
}

// List returns all projects.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	ps, err := h.Projects.List(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, ps)
}

// Get returns one project by slug.
func (h *ProjectHandler) Get(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	p, err := h.Projects.FindBySlug(ctx, c.Param("slug"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create inserts a project. The slug is derived from the title when not
// supplied explicitly.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Title)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Projects.Create(ctx, model.Project{
		Title:       req.Title,
		Slug:        slug,
		Description: req.Description,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		RepoURL:     req.RepoURL,
		DemoURL:     req.DemoURL,
		Featured:    req.Featured,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Update rewrites a project's fields.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Projects.FindByID(ctx, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	p.Title = req.Title
	if req.Slug != "" {
		p.Slug = req.Slug
	}
	p.Description = req.Description
	p.Tags = req.Tags
	p.ImageURL = req.ImageURL
	p.RepoURL = req.RepoURL
	p.DemoURL = req.DemoURL
	p.Featured = req.Featured
	if err := h.Projects.Update(ctx, p); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes a project.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()
	if err := h.Projects.Delete(ctx, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// slugify lowercases the title and replaces runs of non-alphanumerics with
// single dashes.
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
