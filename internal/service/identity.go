package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/mkarel/portfolio-api/internal/auth"
	"github.com/mkarel/portfolio-api/internal/model"
	q "github.com/mkarel/portfolio-api/internal/queue"
	"github.com/mkarel/portfolio-api/internal/repository"
)

// UserStore is the credential store contract the identity service works
// against. repository.UserRepo satisfies it; tests supply an in-memory
// fake. Implementations return repository.ErrUserNotFound for absent rows
// and repository.ErrEmailExists for duplicate emails.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id uint64) (model.User, error)
	FindByVerificationToken(ctx context.Context, token string) (model.User, error)
	FindByResetToken(ctx context.Context, token string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id uint64) error
}

// OAuthIdentity is the profile an external provider hands back after the
// code exchange, reduced to the fields identity resolution needs.
type OAuthIdentity struct {
	Provider   string // model.ProviderGoogle or model.ProviderGitHub
	ProviderID string
	Email      string
	Name       string
	Picture    string
}

// ResetTokenTTL is the validity window of a password reset token.
const ResetTokenTTL = time.Hour

// IdentityService reconciles authentication attempts against the credential
// store and issues session tokens. All dependencies are injected; the
// bcrypt cost comes from config.
type IdentityService struct {
	users  UserStore
	tokens *auth.TokenService
	audit  AuditSink
	cost   int
}

func NewIdentityService(users UserStore, tokens *auth.TokenService, audit AuditSink, bcryptCost int) *IdentityService {
	return &IdentityService{users: users, tokens: tokens, audit: audit, cost: bcryptCost}
}

// Register creates a local, unverified account. The duplicate-email
// pre-check is best effort; the store's unique key is the real guard, so a
// concurrent duplicate surfaces as repository.ErrEmailExists from Create.
// The caller is responsible for delivering the verification email using the
// returned token.
func (s *IdentityService) Register(ctx context.Context, email, name, password, picture string) (model.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.User{}, repository.ErrEmailExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, err
	}

	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		return model.User{}, err
	}
	verifyTok, err := auth.NewOpaqueToken()
	if err != nil {
		return model.User{}, err
	}
	if picture == "" {
		picture = model.DefaultAvatarURL
	}

	return s.users.Create(ctx, model.User{
		Email:             email,
		Name:              name,
		AvatarURL:         picture,
		Provider:          model.ProviderLocal,
		PasswordHash:      hash,
		Role:              model.RoleUser,
		IsVerified:        false,
		VerificationToken: verifyTok,
	})
}

// Login authenticates a local account and issues a session token. Failure
// order: unknown email -> invalid credentials; non-local provider -> wrong
// provider (message names the provider); bad or absent password -> invalid
// credentials; unverified -> not verified.
func (s *IdentityService) Login(ctx context.Context, email, password string) (model.User, string, time.Time, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, "", time.Time{}, ErrInvalidCredentials
		}
		return model.User{}, "", time.Time{}, err
	}
	if u.Provider != model.ProviderLocal {
		return model.User{}, "", time.Time{}, &WrongProviderError{Provider: u.Provider}
	}
	if !u.HasPassword() || !auth.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, "", time.Time{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return model.User{}, "", time.Time{}, ErrNotVerified
	}

	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		return model.User{}, "", time.Time{}, err
	}
	return u, tok, exp, nil
}

// VerifyEmail consumes a one-time verification token: the matching user
// becomes verified and the token is cleared so a second call with the same
// token fails.
func (s *IdentityService) VerifyEmail(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrInvalidVerifyToken
	}
	u, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrInvalidVerifyToken
		}
		return model.User{}, err
	}
	u.IsVerified = true
	u.VerificationToken = ""
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// RequestPasswordReset stores a fresh reset token with a one hour expiry
// and returns it for email delivery. An unknown email returns
// repository.ErrUserNotFound, but the handler must never surface that:
// the outward response is the same generic success either way, to prevent
// account enumeration.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) (model.User, string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return model.User{}, "", err
	}
	tok, err := auth.NewOpaqueToken()
	if err != nil {
		return model.User{}, "", err
	}
	exp := time.Now().UTC().Add(ResetTokenTTL)
	u.ResetToken = tok
	u.ResetExpires = &exp
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, "", err
	}
	return u, tok, nil
}

// ResetPassword consumes a reset token that is still inside its expiry
// window, stores the new password hash and clears both reset fields.
func (s *IdentityService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	u, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if u.ResetExpires == nil || time.Now().UTC().After(*u.ResetExpires) {
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ResetToken = ""
	u.ResetExpires = nil
	return s.users.Update(ctx, u)
}

// ResolveOAuth reconciles an external identity against the credential
// store and issues a session token for the resolved user. Outcomes:
//
//   - no user with this email: a new verified account is created
//   - same provider already linked: resolved as-is, no mutation
//   - unverified local account: migrated to the OAuth provider
//     (explicit MigrateLocalToOAuth transition, audit logged)
//   - anything else (verified local, other OAuth provider): conflict
//
// Resolution is idempotent: repeating the call with the same identity
// yields the same user id and no duplicate record.
func (s *IdentityService) ResolveOAuth(ctx context.Context, id OAuthIdentity) (model.User, string, time.Time, error) {
	u, err := s.users.FindByEmail(ctx, id.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		u, err = s.createOAuthUser(ctx, id)
		if err != nil {
			return model.User{}, "", time.Time{}, err
		}
	case err != nil:
		return model.User{}, "", time.Time{}, err
	case u.Provider == id.Provider:
		// Already linked to this provider; resolve as-is.
	case u.Provider == model.ProviderLocal && !u.IsVerified:
		u, err = s.migrateLocalToOAuth(ctx, u, id)
		if err != nil {
			return model.User{}, "", time.Time{}, err
		}
	default:
		return model.User{}, "", time.Time{}, &ProviderConflictError{Provider: u.Provider}
	}

	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		return model.User{}, "", time.Time{}, err
	}
	return u, tok, exp, nil
}

func (s *IdentityService) createOAuthUser(ctx context.Context, id OAuthIdentity) (model.User, error) {
	picture := id.Picture
	if picture == "" {
		picture = model.DefaultAvatarURL
	}
	return s.users.Create(ctx, model.User{
		Email:      id.Email,
		Name:       id.Name,
		AvatarURL:  picture,
		Provider:   id.Provider,
		ProviderID: id.ProviderID,
		Role:       model.RoleUser,
		IsVerified: true,
	})
}

// migrateLocalToOAuth is the named state transition that reclaims an
// unverified local signup for a matching OAuth identity: provider and
// provider id are overwritten, the account becomes verified and any pending
// verification token is cleared. Every migration emits an audit event.
func (s *IdentityService) migrateLocalToOAuth(ctx context.Context, u model.User, id OAuthIdentity) (model.User, error) {
	from := u.Provider
	u.Provider = id.Provider
	u.ProviderID = id.ProviderID
	u.IsVerified = true
	u.VerificationToken = ""
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, err
	}

	if s.audit != nil {
		ev := q.AuditEvent{
			Kind:         q.KindAccountMigrated,
			UserID:       u.ID,
			Email:        u.Email,
			FromProvider: from,
			ToProvider:   u.Provider,
			OccurredAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.audit.Publish(ctx, ev); err != nil {
			log.Printf("identity: audit publish for user %d failed: %v", u.ID, err)
		}
	}
	return u, nil
}

// SetPassword gives an OAuth-only account a local password. First-set
// only: an existing hash is never overwritten through this path.
func (s *IdentityService) SetPassword(ctx context.Context, userID uint64, password string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		return ErrPasswordAlreadySet
	}
	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}

// ChangePassword replaces the password of a local account after verifying
// the current one.
func (s *IdentityService) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasPassword() || !auth.VerifyPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}
