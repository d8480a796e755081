package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mkarel/portfolio-api/internal/model"
)

// UserRepo persists users. Email is stored exactly as given (trimmed, case
// preserved); the unique key on users.email resolves concurrent duplicate
// registrations by rejecting the second insert (MySQL error 1062).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, name, avatar_url, provider, provider_id,
	password_hash, role, is_admin, is_verified, verification_token,
	reset_token, reset_expires, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u            model.User
		providerID   sql.NullString
		passwordHash sql.NullString
		verifyTok    sql.NullString
		resetTok     sql.NullString
		resetExp     sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider,
		&providerID, &passwordHash, &u.Role, &u.IsAdmin, &u.IsVerified,
		&verifyTok, &resetTok, &resetExp, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.ProviderID = providerID.String
	u.PasswordHash = passwordHash.String
	u.VerificationToken = verifyTok.String
	u.ResetToken = resetTok.String
	if resetExp.Valid {
		t := resetExp.Time
		u.ResetExpires = &t
	}
	return u, nil
}

// FindByEmail fetches a user by exact email match.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE BINARY email = ? LIMIT 1",
		strings.TrimSpace(email)))
}

// FindByID fetches a user by primary key.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
}

// FindByVerificationToken fetches the user holding the given one-time email
// verification token.
func (r *UserRepo) FindByVerificationToken(ctx context.Context, token string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE verification_token = ? LIMIT 1", token))
}

// FindByResetToken fetches the user holding the given password reset token.
// Expiry is checked by the caller, not here.
func (r *UserRepo) FindByResetToken(ctx context.Context, token string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token = ? LIMIT 1", token))
}

// Create inserts a user and returns it with the assigned id and timestamps.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	res, err := r.DB.ExecContext(ctx, `INSERT INTO users
		(email, name, avatar_url, provider, provider_id, password_hash,
		 role, is_admin, is_verified, verification_token)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.Email, u.Name, u.AvatarURL, u.Provider, nullStr(u.ProviderID),
		nullStr(u.PasswordHash), u.Role, u.IsAdmin, u.IsVerified,
		nullStr(u.VerificationToken))
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// Update writes every mutable column of the user row. Callers load the
// record, mutate it and hand it back; updated_at is maintained by the
// database.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET
		email=?, name=?, avatar_url=?, provider=?, provider_id=?,
		password_hash=?, role=?, is_admin=?, is_verified=?,
		verification_token=?, reset_token=?, reset_expires=?
		WHERE id=?`,
		strings.TrimSpace(u.Email), u.Name, u.AvatarURL, u.Provider,
		nullStr(u.ProviderID), nullStr(u.PasswordHash), u.Role, u.IsAdmin,
		u.IsVerified, nullStr(u.VerificationToken), nullStr(u.ResetToken),
		nullTime(u.ResetExpires), u.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean a no-op write; confirm existence.
		if _, ferr := r.FindByID(ctx, u.ID); ferr != nil {
			return ferr
		}
	}
	return nil
}

// Delete removes a user row (hard delete, no tombstone).
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns all users ordered by creation, for the admin listing.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, email, name, avatar_url, provider, role, is_admin, is_verified, created_at, updated_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL,
			&u.Provider, &u.Role, &u.IsAdmin, &u.IsVerified,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// isDuplicateKey reports whether err is a MySQL duplicate-key violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
