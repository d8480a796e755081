package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarel/portfolio-api/internal/auth"
	"github.com/mkarel/portfolio-api/internal/model"
	q "github.com/mkarel/portfolio-api/internal/queue"
	"github.com/mkarel/portfolio-api/internal/repository"
)

// bcrypt cost 4 keeps the suite fast; production cost comes from config.
const testBcryptCost = 4

func newTestIdentity(t *testing.T) (*IdentityService, *fakeUserStore, *recordingAuditSink) {
	t.Helper()
	store := newFakeUserStore()
	sink := &recordingAuditSink{}
	tokens := auth.NewTokenService("identity-test-secret-32-bytes-ok!", time.Hour)
	return NewIdentityService(store, tokens, sink, testBcryptCost), store, sink
}

func mustRegister(t *testing.T, svc *IdentityService, email string) model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), email, "Alice", "password123", "")
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesUnverifiedLocalAccount(t *testing.T) {
	svc, _, _ := newTestIdentity(t)

	u := mustRegister(t, svc, "alice@example.com")
	assert.Equal(t, model.ProviderLocal, u.Provider)
	assert.False(t, u.IsVerified)
	assert.NotEmpty(t, u.VerificationToken)
	assert.Len(t, u.VerificationToken, 64)
	assert.True(t, u.HasPassword())
	assert.NotEqual(t, "password123", u.PasswordHash)
	assert.Equal(t, model.DefaultAvatarURL, u.AvatarURL)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, store, _ := newTestIdentity(t)

	mustRegister(t, svc, "alice@example.com")
	_, err := svc.Register(context.Background(), "alice@example.com", "Alice Again", "password456", "")
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.Equal(t, 1, store.count())
}

func TestRegister_EmailIsCaseSensitive(t *testing.T) {
	svc, store, _ := newTestIdentity(t)

	mustRegister(t, svc, "alice@example.com")
	_, err := svc.Register(context.Background(), "Alice@example.com", "Other Alice", "password456", "")
	assert.NoError(t, err, "differently-cased email is a distinct account")
	assert.Equal(t, 2, store.count())
}

func TestLogin_GatedOnVerification(t *testing.T) {
	svc, _, _ := newTestIdentity(t)
	ctx := context.Background()

	u := mustRegister(t, svc, "alice@example.com")

	_, _, _, err := svc.Login(ctx, "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrNotVerified)

	verified, err := svc.VerifyEmail(ctx, u.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Empty(t, verified.VerificationToken)

	got, tok, exp, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, tok)
	assert.True(t, exp.After(time.Now()))

	// The token is single use; a second call with the same value fails.
	_, err = svc.VerifyEmail(ctx, u.VerificationToken)
	assert.ErrorIs(t, err, ErrInvalidVerifyToken)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, store, _ := newTestIdentity(t)
	ctx := context.Background()

	u := mustRegister(t, svc, "alice@example.com")
	store.mutate(u.ID, func(m *model.User) { m.IsVerified = true })

	_, _, _, err := svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_WrongProviderNamesProvider(t *testing.T) {
	svc, _, _ := newTestIdentity(t)
	ctx := context.Background()

	_, _, _, err := svc.ResolveOAuth(ctx, OAuthIdentity{
		Provider: model.ProviderGoogle, ProviderID: "g-1",
		Email: "alice@example.com", Name: "Alice",
	})
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "alice@example.com", "anything")
	var wrong *WrongProviderError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, model.ProviderGoogle, wrong.Provider)
	assert.Contains(t, wrong.Error(), "google")
}

func TestPasswordReset_RoundTrip(t *testing.T) {
	svc, store, _ := newTestIdentity(t)
	ctx := context.Background()

	u := mustRegister(t, svc, "alice@example.com")
	store.mutate(u.ID, func(m *model.User) { m.IsVerified = true })

	_, tok, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	require.NoError(t, svc.ResetPassword(ctx, tok, "new-password-1"))

	_, _, _, err = svc.Login(ctx, "alice@example.com", "new-password-1")
	assert.NoError(t, err)
	_, _, _, err = svc.Login(ctx, "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// One successful use consumes the token.
	err = svc.ResetPassword(ctx, tok, "another-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordReset_ExpiredToken(t *testing.T) {
	svc, store, _ := newTestIdentity(t)
	ctx := context.Background()

	u := mustRegister(t, svc, "alice@example.com")
	_, tok, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Minute)
	store.mutate(u.ID, func(m *model.User) { m.ResetExpires = &past })

	err = svc.ResetPassword(ctx, tok, "new-password-1")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordReset_UnknownEmailStaysInternal(t *testing.T) {
	svc, _, _ := newTestIdentity(t)

	// The handler converts this into a generic success response; the
	// service itself reports the miss.
	_, _, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestResolveOAuth_CreatesVerifiedAccount(t *testing.T) {
	svc, store, _ := newTestIdentity(t)
	ctx := context.Background()

	id := OAuthIdentity{
		Provider: model.ProviderGoogle, ProviderID: "g-1",
		Email: "alice@example.com", Name: "Alice", Picture: "https://p.example/a.png",
	}
	u, tok, _, err := svc.ResolveOAuth(ctx, id)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Equal(t, model.ProviderGoogle, u.Provider)
	assert.Equal(t, "g-1", u.ProviderID)
	assert.False(t, u.HasPassword())
	assert.NotEmpty(t, tok)

	// Idempotent: an identical resolution yields the same user, no
	// duplicate record.
	again, _, _, err := svc.ResolveOAuth(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, 1, store.count())
}

func TestResolveOAuth_MigratesUnverifiedLocal(t *testing.T) {
	svc, store, sink := newTestIdentity(t)
	ctx := context.Background()

	local := mustRegister(t, svc, "a@x.com")
	require.False(t, local.IsVerified)

	u, _, _, err := svc.ResolveOAuth(ctx, OAuthIdentity{
		Provider: model.ProviderGoogle, ProviderID: "g-7",
		Email: "a@x.com", Name: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, local.ID, u.ID)
	assert.Equal(t, model.ProviderGoogle, u.Provider)
	assert.True(t, u.IsVerified)
	assert.Empty(t, u.VerificationToken)
	assert.Equal(t, 1, store.count())

	// Password login is now closed off behind the provider check.
	_, _, _, err = svc.Login(ctx, "a@x.com", "password123")
	var wrong *WrongProviderError
	assert.ErrorAs(t, err, &wrong)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, q.KindAccountMigrated, events[0].Kind)
	assert.Equal(t, local.ID, events[0].UserID)
	assert.Equal(t, model.ProviderLocal, events[0].FromProvider)
	assert.Equal(t, model.ProviderGoogle, events[0].ToProvider)
}

func TestResolveOAuth_ConflictWithVerifiedLocal(t *testing.T) {
	svc, store, sink := newTestIdentity(t)
	ctx := context.Background()

	u := mustRegister(t, svc, "alice@example.com")
	store.mutate(u.ID, func(m *model.User) { m.IsVerified = true })

	_, _, _, err := svc.ResolveOAuth(ctx, OAuthIdentity{
		Provider: model.ProviderGoogle, ProviderID: "g-1",
		Email: "alice@example.com", Name: "Alice",
	})
	var conflict *ProviderConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.ProviderLocal, conflict.Provider)
	assert.Empty(t, sink.all(), "no migration event on conflict")
}

func TestResolveOAuth_ConflictWithOtherProvider(t *testing.T) {
	svc, _, _ := newTestIdentity(t)
	ctx := context.Background()

	_, _, _, err := svc.ResolveOAuth(ctx, OAuthIdentity{
		Provider: model.ProviderGitHub, ProviderID: "gh-1",
		Email: "alice@example.com", Name: "Alice",
	})
	require.NoError(t, err)

	_, _, _, err = svc.ResolveOAuth(ctx, OAuthIdentity{
		Provider: model.ProviderGoogle, ProviderID: "g-1",
		Email: "alice@example.com", Name: "Alice",
	})
	var conflict *ProviderConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, model.ProviderGitHub, conflict.Provider)
}

func TestSetPassword_FirstSetOnly(t *testing.T) {
	svc, store, _ := newTestIdentity(t)
	ctx := context.Background()

	u, _, _, err := svc.ResolveOAuth(ctx, OAuthIdentity{
		Provider: model.ProviderGoogle, ProviderID: "g-1",
		Email: "alice@example.com", Name: "Alice",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(ctx, u.ID, "first-password"))

	stored, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPassword())

	err = svc.SetPassword(ctx, u.ID, "second-password")
	assert.ErrorIs(t, err, ErrPasswordAlreadySet)

	err = svc.SetPassword(ctx, 9999, "whatever")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newTestIdentity(t)
	ctx := context.Background()

	u := mustRegister(t, svc, "alice@example.com")
	store.mutate(u.ID, func(m *model.User) { m.IsVerified = true })

	err := svc.ChangePassword(ctx, u.ID, "wrong-current", "brand-new-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "password123", "brand-new-pass"))
	_, _, _, err = svc.Login(ctx, "alice@example.com", "brand-new-pass")
	assert.NoError(t, err)
}
