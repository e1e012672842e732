package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/secureshare/internal/config"
	"github.com/templui/secureshare/internal/db/dbtest"
	"github.com/templui/secureshare/internal/service"
)

func TestNewWithDeps_MovesUploadKeyIntoGate(t *testing.T) {
	cfg := &config.Config{
		AppURL:         "https://share.example.com",
		UploadKey:      "static-key",
		TokenExpiry:    time.Hour,
		MaxTokenExpiry: 24 * time.Hour,
		DefaultExpires: time.Hour,
		MaxExpires:     24 * time.Hour,
		CleanInterval:  time.Minute,
	}

	a := NewWithDeps(cfg, dbtest.New(t), nil)
	t.Cleanup(func() { _ = a.Close() })

	assert.Empty(t, cfg.UploadKey)
	assert.Empty(t, a.Cfg.UploadKey)

	grant, err := a.Gate.Authorize(context.Background(), "static-key", false)
	require.NoError(t, err)
	assert.Equal(t, service.GrantStatic, grant)

	_, err = a.Gate.Authorize(context.Background(), "", false)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestNewWithDeps_RateLimiter(t *testing.T) {
	cfg := &config.Config{TokenExpiry: time.Hour, CleanInterval: time.Minute}
	a := NewWithDeps(cfg, dbtest.New(t), nil)
	t.Cleanup(func() { _ = a.Close() })
	assert.Nil(t, a.RateLimiter)

	cfg = &config.Config{TokenExpiry: time.Hour, CleanInterval: time.Minute, RateLimit: 5, RateLimitWindow: time.Minute}
	b := NewWithDeps(cfg, dbtest.New(t), nil)
	t.Cleanup(func() { _ = b.Close() })
	assert.NotNil(t, b.RateLimiter)
}
