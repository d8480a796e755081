package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mkarel/portfolio-api/internal/model"
	q "github.com/mkarel/portfolio-api/internal/queue"
	"github.com/mkarel/portfolio-api/internal/repository"
)

// TestimonialStore is the persistence contract behind the moderation
// workflow. repository.TestimonialRepo satisfies it.
type TestimonialStore interface {
	FindByID(ctx context.Context, id uint64) (model.Testimonial, error)
	ListApproved(ctx context.Context) ([]model.Testimonial, error)
	ListAll(ctx context.Context) ([]model.Testimonial, error)
	Create(ctx context.Context, t model.Testimonial) (model.Testimonial, error)
	Update(ctx context.Context, t model.Testimonial) error
	Delete(ctx context.Context, id uint64) error
}

// TestimonialUpdate is the allow-listed set of fields a caller may change.
// Nil means "leave as is". Approved is honored only on the admin path; a
// non-admin supplying it is rejected outright. No other input key ever
// reaches the record.
type TestimonialUpdate struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Position  *string `json:"position"`
	Company   *string `json:"company"`
	Content   *string `json:"content"`
	Rating    *int    `json:"rating"`
	Approved  *bool   `json:"is_approved"`
}

// TestimonialService owns the moderation workflow: testimonials are created
// unapproved, only admins flip approval (either direction), and updates or
// deletes require the owner or an admin.
type TestimonialService struct {
	store TestimonialStore
	audit AuditSink
}

func NewTestimonialService(store TestimonialStore, audit AuditSink) *TestimonialService {
	return &TestimonialService{store: store, audit: audit}
}

// isModerator reports whether the user passes the admin gate. Both the
// role string and the IsAdmin flag grant, matching the authorization
// middleware.
func isModerator(u model.User) bool {
	return u.IsAdmin || u.Role == model.RoleAdmin
}

// Create stores a new testimonial for the author. Display name and avatar
// are denormalized from the user record at this point and never re-synced.
// Every testimonial starts unapproved regardless of who creates it.
func (s *TestimonialService) Create(ctx context.Context, author model.User, t model.Testimonial) (model.Testimonial, error) {
	t.UserID = author.ID
	if t.AuthorName == "" {
		t.AuthorName = author.Name
	}
	t.AuthorAvatar = author.AvatarURL
	t.IsApproved = false
	return s.store.Create(ctx, t)
}

// ListApproved returns the publicly visible testimonials.
func (s *TestimonialService) ListApproved(ctx context.Context) ([]model.Testimonial, error) {
	return s.store.ListApproved(ctx)
}

// ListAll returns every testimonial for the admin moderation view.
func (s *TestimonialService) ListAll(ctx context.Context) ([]model.Testimonial, error) {
	return s.store.ListAll(ctx)
}

// Update applies an allow-listed merge onto the testimonial. The caller
// must be the owner or an admin; only an admin may touch Approved. When an
// admin flips the approval state an audit event is published.
func (s *TestimonialService) Update(ctx context.Context, caller model.User, id uint64, upd TestimonialUpdate) (model.Testimonial, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Testimonial{}, err
	}
	admin := isModerator(caller)
	if t.UserID != caller.ID && !admin {
		return model.Testimonial{}, ErrForbidden
	}
	if upd.Approved != nil && !admin {
		return model.Testimonial{}, ErrForbidden
	}

	if upd.Name != nil {
		t.AuthorName = *upd.Name
	}
	if upd.AvatarURL != nil {
		t.AuthorAvatar = *upd.AvatarURL
	}
	if upd.Position != nil {
		t.Position = *upd.Position
	}
	if upd.Company != nil {
		t.Company = *upd.Company
	}
	if upd.Content != nil {
		t.Content = *upd.Content
	}
	if upd.Rating != nil {
		t.Rating = *upd.Rating
	}

	moderated := false
	if upd.Approved != nil && *upd.Approved != t.IsApproved {
		t.IsApproved = *upd.Approved
		moderated = true
	}

	if err := s.store.Update(ctx, t); err != nil {
		return model.Testimonial{}, err
	}

	if moderated && s.audit != nil {
		approved := t.IsApproved
		ev := q.AuditEvent{
			Kind:          q.KindTestimonialModerated,
			UserID:        t.UserID,
			ActorID:       caller.ID,
			TestimonialID: t.ID,
			Approved:      &approved,
			OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.audit.Publish(ctx, ev); err != nil {
			log.Printf("testimonial: audit publish for %d failed: %v", t.ID, err)
		}
	}
	return t, nil
}

// Delete removes a testimonial under the same owner-or-admin rule as
// Update.
func (s *TestimonialService) Delete(ctx context.Context, caller model.User, id uint64) error {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if t.UserID != caller.ID && !isModerator(caller) {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// IsNotFound reports whether err is a store not-found error of any kind.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrUserNotFound)
}
