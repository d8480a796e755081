package repository

import (
	"context"
	"database/sql"

	"github.com/mkarel/portfolio-api/internal/model"
)

// ProjectRepo persists portfolio projects. The unique key on projects.slug
// resolves duplicate slugs the same way users.email does for users.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const projectColumns = `id, title, slug, description, tags, image_url,
	repo_url, demo_url, featured, created_at, updated_at`

func scanProject(sc interface{ Scan(...any) error }) (model.Project, error) {
	var p model.Project
	err := sc.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Tags,
		&p.ImageURL, &p.RepoURL, &p.DemoURL, &p.Featured,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Project{}, ErrNotFound
	}
	return p, err
}

// List returns all projects, featured first then newest.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY featured DESC, created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindBySlug fetches a project by its public slug.
func (r *ProjectRepo) FindBySlug(ctx context.Context, slug string) (model.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE slug=? LIMIT 1", slug))
}

// FindByID fetches a project by primary key.
func (r *ProjectRepo) FindByID(ctx context.Context, id uint64) (model.Project, error) {
	return scanProject(r.DB.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id=? LIMIT 1", id))
}

// Create inserts a project and returns it with the assigned id.
func (r *ProjectRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO projects
		(title, slug, description, tags, image_url, repo_url, demo_url, featured)
		VALUES (?,?,?,?,?,?,?,?)`,
		p.Title, p.Slug, p.Description, p.Tags, p.ImageURL, p.RepoURL,
		p.DemoURL, p.Featured)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Project{}, ErrSlugExists
		}
		return model.Project{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Project{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// Update writes the mutable columns of a project row.
func (r *ProjectRepo) Update(ctx context.Context, p model.Project) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE projects SET
		title=?, slug=?, description=?, tags=?, image_url=?, repo_url=?,
		demo_url=?, featured=? WHERE id=?`,
		p.Title, p.Slug, p.Description, p.Tags, p.ImageURL, p.RepoURL,
		p.DemoURL, p.Featured, p.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSlugExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, ferr := r.FindByID(ctx, p.ID); ferr != nil {
			return ferr
		}
	}
	return nil
}

// Delete removes a project row.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
