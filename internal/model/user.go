package model

import "time"

// Authentication providers. A user record carries exactly one of these in
// its Provider field. Local accounts authenticate with a password; OAuth
// accounts carry the provider-issued identifier instead.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// Roles stored in users.role. The IsAdmin flag exists alongside the role
// string; authorization honors either one (see middleware.RequireAdmin).
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultAvatarURL is assigned when a registration or OAuth profile does not
// supply a picture.
const DefaultAvatarURL = "/static/avatar-placeholder.png"

// User mirrors the `users` table. Empty string fields stand for NULL
// columns: a PasswordHash of "" means the account has no local password
// (OAuth-only), an empty VerificationToken means no verification is pending,
// and an empty ResetToken means no password reset is in flight.
//
// Email is stored and compared exactly as given (trimmed, case preserved).
// Uniqueness is enforced by the database unique key, not by application
// checks.
type User struct {
	ID                uint64     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	AvatarURL         string     `json:"avatar_url"`
	Provider          string     `json:"provider"`
	ProviderID        string     `json:"-"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	IsAdmin           bool       `json:"is_admin"`
	IsVerified        bool       `json:"is_verified"`
	VerificationToken string     `json:"-"`
	ResetToken        string     `json:"-"`
	ResetExpires      *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// HasPassword reports whether the account can log in with a local password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// Sanitized returns a copy safe to attach to a request context or serialize
// in a response: all secret material is blanked.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.VerificationToken = ""
	u.ResetToken = ""
	u.ResetExpires = nil
	return u
}
