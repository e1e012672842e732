package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObject_IsExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	o := &Object{ExpiresAt: now}

	assert.True(t, o.IsExpired(now))
	assert.True(t, o.IsExpired(now.Add(time.Second)))
	assert.False(t, o.IsExpired(now.Add(-time.Second)))
}

func TestToken_Normalize(t *testing.T) {
	assert.Equal(t, "token:abc", NormalizeTokenID("abc"))
	assert.Equal(t, "token:abc", NormalizeTokenID("token:abc"))
	assert.True(t, IsTokenCredential("token:"))
	assert.False(t, IsTokenCredential("tok"))

	tok := &Token{ExpiresAt: time.Unix(100, 0)}
	assert.False(t, tok.IsExpired(time.Unix(99, 0)))
	assert.True(t, tok.IsExpired(time.Unix(100, 0)))
}
