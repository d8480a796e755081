// Package auth provides the session token service and password hashing
// helpers. Tokens are stateless HS256 JWTs: validity is signature plus
// expiry only, so an issued token cannot be revoked before it expires.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkarel/portfolio-api/internal/model"
)

// Verification failure modes. The authorization gate collapses all of these
// to a single outward 401; they stay distinct here for logging and tests.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims is the decoded claim set carried by a session token.
type Claims struct {
	UserID  uint64
	Email   string
	Role    string
	IsAdmin bool
}

// TokenService signs and verifies session tokens. It is constructed once in
// main with the signing secret and TTL from config and passed to whoever
// needs it; nothing reads the environment here.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService. ttl <= 0 falls back to 24 hours.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the user carrying {sub, email, role, is_admin}
// and returns the token string with its expiry time.
func (s *TokenService) Issue(u model.User) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"email":    u.Email,
		"role":     u.Role,
		"is_admin": u.IsAdmin,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a raw token string. It distinguishes expiry,
// bad signatures and structural garbage so callers can log the difference,
// though all three reject the request the same way.
func (s *TokenService) Verify(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrTokenMalformed
		default:
			return Claims{}, ErrTokenInvalid
		}
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	var c Claims
	switch sub := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(sub)
	case string:
		n, perr := strconv.ParseUint(sub, 10, 64)
		if perr != nil {
			return Claims{}, ErrTokenMalformed
		}
		c.UserID = n
	default:
		return Claims{}, ErrTokenMalformed
	}
	c.Email, _ = mc["email"].(string)
	c.Role, _ = mc["role"].(string)
	c.IsAdmin, _ = mc["is_admin"].(bool)
	return c, nil
}
