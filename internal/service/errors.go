// Package service implements the business operations behind the HTTP
// handlers: identity resolution (registration, login, verification, reset,
// OAuth) and the testimonial moderation workflow.
package service

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the handler layer, which maps each to a
// stable HTTP status.
var (
	// ErrInvalidCredentials covers unknown email, missing password hash
	// and wrong password alike. 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotVerified is returned when a local account has not confirmed
	// its email yet. 403.
	ErrNotVerified = errors.New("email not verified")

	// ErrInvalidVerifyToken is returned when an email verification token
	// matches no user (including already-consumed tokens). 404.
	ErrInvalidVerifyToken = errors.New("invalid verification token")

	// ErrInvalidResetToken is returned when a password reset token is
	// unknown, already consumed, or past its expiry. 400.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrPasswordAlreadySet is returned when set-password is attempted on
	// an account that already has a local password. First-set only; this
	// path never overwrites. 409.
	ErrPasswordAlreadySet = errors.New("password already set")

	// ErrForbidden is returned when the caller is neither the owner of a
	// resource nor an admin. 403.
	ErrForbidden = errors.New("forbidden")
)

// WrongProviderError is returned by Login when the account exists but was
// created through an OAuth provider. The provider name is embedded in the
// user-facing message on purpose; this is a deliberate UX trade-off against
// a strict always-say-invalid-credentials policy.
type WrongProviderError struct{ Provider string }

func (e *WrongProviderError) Error() string {
	return fmt.Sprintf("account uses %s sign-in, not a password", e.Provider)
}

// ProviderConflictError is returned by ResolveOAuth when the email is
// already claimed by a verified local account or a different OAuth
// provider. Carries the existing provider for the "already have an account
// with X" message.
type ProviderConflictError struct{ Provider string }

func (e *ProviderConflictError) Error() string {
	return fmt.Sprintf("you already have an account with %s", e.Provider)
}
