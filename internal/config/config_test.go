package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "https://share.example.com/")
	t.Setenv("UPLOAD_KEY", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg := Load()
	require.NotNil(t, cfg)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "https://share.example.com", cfg.AppURL)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "s3cret", cfg.UploadKey)
	assert.Equal(t, 24*time.Hour, cfg.DefaultExpires)
	assert.Equal(t, 720*time.Hour, cfg.MaxExpires)
	assert.Equal(t, time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 60*time.Second, cfg.CleanInterval)
	assert.EqualValues(t, 100<<20, cfg.MaxUploadSize)
	assert.Equal(t, StorageBackendDB, cfg.StorageBackend)
	assert.Contains(t, cfg.BotAgentPrefixes, "Slackbot")
	assert.Contains(t, cfg.BotAgentSubstrings, "preview")
	assert.NotContains(t, cfg.BotAgentSubstrings, "bot")
	assert.Equal(t, 24*time.Hour, cfg.MaxTokenExpiry)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_EXPIRES", "2h")
	t.Setenv("CLEAN_INTERVAL", "15s")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("BOT_AGENT_PREFIXES", " curl/ , Wget ,,")
	t.Setenv("BOT_AGENT_SUBSTRINGS", "")
	t.Setenv("RATE_LIMIT", "not-a-number")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.DefaultExpires)
	assert.Equal(t, 15*time.Second, cfg.CleanInterval)
	assert.EqualValues(t, 1024, cfg.MaxUploadSize)
	assert.Equal(t, []string{"curl/", "Wget"}, cfg.BotAgentPrefixes)
	assert.Empty(t, cfg.BotAgentSubstrings)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.True(t, cfg.TrustProxy)
}

func TestEnvDuration_Invalid(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Minute, envDuration("X_DURATION", time.Minute))
}

func TestSanitized_StripsSecrets(t *testing.T) {
	cfg := &Config{
		AppURL:      "https://x",
		UploadKey:   "key",
		S3AccessKey: "ak",
		S3SecretKey: "sk",
		SentryDSN:   "dsn",
		S3Bucket:    "bucket",
	}

	s := cfg.Sanitized()
	assert.Equal(t, "https://x", s.AppURL)
	assert.Equal(t, "bucket", s.S3Bucket)
	assert.Empty(t, s.UploadKey)
	assert.Empty(t, s.S3AccessKey)
	assert.Empty(t, s.S3SecretKey)
	assert.Empty(t, s.SentryDSN)
}
