package repository

import (
	"context"
	"database/sql"

	"github.com/mkarel/portfolio-api/internal/model"
)

// TestimonialRepo persists testimonials.
type TestimonialRepo struct{ DB *sql.DB }

func NewTestimonialRepo(db *sql.DB) *TestimonialRepo { return &TestimonialRepo{DB: db} }

const testimonialColumns = `id, user_id, author_name, author_avatar, position,
	company, content, rating, is_approved, created_at, updated_at`

func scanTestimonial(sc interface{ Scan(...any) error }) (model.Testimonial, error) {
	var t model.Testimonial
	err := sc.Scan(&t.ID, &t.UserID, &t.AuthorName, &t.AuthorAvatar,
		&t.Position, &t.Company, &t.Content, &t.Rating, &t.IsApproved,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Testimonial{}, ErrNotFound
	}
	return t, err
}

// FindByID fetches a testimonial by primary key.
func (r *TestimonialRepo) FindByID(ctx context.Context, id uint64) (model.Testimonial, error) {
	return scanTestimonial(r.DB.QueryRowContext(ctx,
		"SELECT "+testimonialColumns+" FROM testimonials WHERE id=? LIMIT 1", id))
}

// ListApproved returns approved testimonials, newest first. This feeds the
// public listing endpoint.
func (r *TestimonialRepo) ListApproved(ctx context.Context) ([]model.Testimonial, error) {
	return r.list(ctx, "SELECT "+testimonialColumns+" FROM testimonials WHERE is_approved=1 ORDER BY created_at DESC")
}

// ListAll returns every testimonial for the admin moderation view.
func (r *TestimonialRepo) ListAll(ctx context.Context) ([]model.Testimonial, error) {
	return r.list(ctx, "SELECT "+testimonialColumns+" FROM testimonials ORDER BY created_at DESC")
}

func (r *TestimonialRepo) list(ctx context.Context, query string) ([]model.Testimonial, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a testimonial and returns it with the assigned id.
func (r *TestimonialRepo) Create(ctx context.Context, t model.Testimonial) (model.Testimonial, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO testimonials
		(user_id, author_name, author_avatar, position, company, content, rating, is_approved)
		VALUES (?,?,?,?,?,?,?,?)`,
		t.UserID, t.AuthorName, t.AuthorAvatar, t.Position, t.Company,
		t.Content, t.Rating, t.IsApproved)
	if err != nil {
		return model.Testimonial{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Testimonial{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// Update writes the mutable columns of a testimonial row.
func (r *TestimonialRepo) Update(ctx context.Context, t model.Testimonial) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE testimonials SET
		author_name=?, author_avatar=?, position=?, company=?, content=?,
		rating=?, is_approved=? WHERE id=?`,
		t.AuthorName, t.AuthorAvatar, t.Position, t.Company, t.Content,
		t.Rating, t.IsApproved, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, ferr := r.FindByID(ctx, t.ID); ferr != nil {
			return ferr
		}
	}
	return nil
}

// Delete removes a testimonial row.
func (r *TestimonialRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM testimonials WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
