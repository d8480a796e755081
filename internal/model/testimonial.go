package model

import "time"

// Rating bounds for testimonials, enforced at the handler boundary before a
// record ever reaches the moderation workflow.
const (
	RatingMin = 1
	RatingMax = 5
)

// MaxTestimonialContentLen bounds the free-text content field.
const MaxTestimonialContentLen = 2000

// Testimonial mirrors the `testimonials` table. AuthorName and AuthorAvatar
// are denormalized copies taken from the user at creation time and are not
// re-synced when the profile changes later. IsApproved starts false on every
// create and may only be flipped by an admin (either direction).
type Testimonial struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"user_id"`
	AuthorName   string    `json:"name"`
	AuthorAvatar string    `json:"avatar_url"`
	Position     string    `json:"position"`
	Company      string    `json:"company"`
	Content      string    `json:"content"`
	Rating       int       `json:"rating"`
	IsApproved   bool      `json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
