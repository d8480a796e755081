package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// NewOpaqueToken returns a 256-bit cryptographically random token encoded
// as 64 hex characters. Used for email verification and password reset
// tokens, which are stored server-side and matched exactly.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
