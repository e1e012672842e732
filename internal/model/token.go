package model

import (
	"strings"
	"time"
)

// TokenPrefix marks a credential as a one-time token rather than the static key.
const TokenPrefix = "token:"

// Token is a single-use upload credential. The ID is the credential itself
// and always carries TokenPrefix.
type Token struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func (t *Token) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// IsTokenCredential reports whether a credential is syntactically a token.
func IsTokenCredential(credential string) bool {
	return strings.HasPrefix(credential, TokenPrefix)
}

// NormalizeTokenID adds TokenPrefix when it is missing.
func NormalizeTokenID(id string) string {
	if IsTokenCredential(id) {
		return id
	}
	return TokenPrefix + id
}
