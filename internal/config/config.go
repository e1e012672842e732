package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageBackendDB = "db"
	StorageBackendS3 = "s3"
)

type Config struct {
	// Application
	AppEnv string
	AppURL string // external base URL used in download links
	Port   string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	UploadKey       string
	TokenExpiry     time.Duration
	MaxTokenExpiry  time.Duration
	RateLimit       int
	RateLimitWindow time.Duration
	TrustProxy      bool // key rate limits on X-Forwarded-For

	// Objects
	DefaultExpires time.Duration
	MaxExpires     time.Duration
	MaxUploadSize  int64

	// Link-preview crawlers that must not consume one-shot downloads
	BotAgentPrefixes   []string
	BotAgentSubstrings []string

	// Timeouts
	RequestTimeout time.Duration
	CleanInterval  time.Duration
	CleanTimeout   time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage: "db" keeps ciphertext in the objects table, "s3" offloads it
	// to any S3-compatible service (MinIO, AWS S3, Cloudflare R2, ...)
	StorageBackend string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string // Optional: for non-AWS providers
}

var (
	defaultBotAgentPrefixes = []string{
		"facebookexternalhit",
		"Slackbot",
		"Twitterbot",
		"TelegramBot",
		"WhatsApp",
		"LinkedInBot",
		"SkypeUriPreview",
		"Mattermost",
		"Iframely",
	}
	defaultBotAgentSubstrings = []string{
		"crawler",
		"spider",
		"preview",
		"linkexpanding",
		"discordbot",
		"embedly",
	}
)

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppEnv: envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL: strings.TrimSuffix(envRequired("APP_URL"), "/"),
		Port:   envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/secureshare.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		UploadKey:       envRequired("UPLOAD_KEY"),
		TokenExpiry:     envDuration("TOKEN_EXPIRY", 1*time.Hour),
		MaxTokenExpiry:  envDuration("MAX_TOKEN_EXPIRY", 24*time.Hour),
		RateLimit:       envInt("RATE_LIMIT", 60),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
		TrustProxy:      envBool("TRUST_PROXY", false),

		// Objects
		DefaultExpires: envDuration("DEFAULT_EXPIRES", 24*time.Hour),
		MaxExpires:     envDuration("MAX_EXPIRES", 720*time.Hour), // 30 days
		MaxUploadSize:  int64(envInt("MAX_UPLOAD_SIZE", 100<<20)),

		BotAgentPrefixes:   envList("BOT_AGENT_PREFIXES", defaultBotAgentPrefixes),
		BotAgentSubstrings: envList("BOT_AGENT_SUBSTRINGS", defaultBotAgentSubstrings),

		// Timeouts
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second),
		CleanInterval:  envDuration("CLEAN_INTERVAL", 60*time.Second),
		CleanTimeout:   envDuration("CLEAN_TIMEOUT", 10*time.Second),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		StorageBackend: envString("STORAGE_BACKEND", StorageBackendDB),
		S3Region:       envString("S3_REGION", "us-east-1"),
		S3Bucket:       envString("S3_BUCKET", ""),
		S3AccessKey:    envString("S3_ACCESS_KEY", ""),
		S3SecretKey:    envString("S3_SECRET_KEY", ""),
		S3Endpoint:     envString("S3_ENDPOINT", ""),
	}

	validate(cfg)

	return cfg
}

// validate exits on settings the server cannot run with.
func validate(cfg *Config) {
	if cfg.StorageBackend == StorageBackendS3 && cfg.S3Bucket == "" {
		slog.Error("config S3_BUCKET required when STORAGE_BACKEND=s3")
		os.Exit(1)
	}
	if cfg.TokenExpiry <= 0 || cfg.TokenExpiry > cfg.MaxTokenExpiry {
		slog.Error("config TOKEN_EXPIRY must be positive and not exceed MAX_TOKEN_EXPIRY",
			"default", cfg.TokenExpiry, "max", cfg.MaxTokenExpiry)
		os.Exit(1)
	}
	if cfg.DefaultExpires <= 0 || cfg.DefaultExpires > cfg.MaxExpires {
		slog.Error("config DEFAULT_EXPIRES must be positive and not exceed MAX_EXPIRES",
			"default", cfg.DefaultExpires, "max", cfg.MaxExpires)
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

// envList reads a comma separated list. An explicitly empty variable
// disables the list.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// The upload key, S3 credentials and the Sentry DSN are excluded.
// Safe to log at startup.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppEnv:             c.AppEnv,
		AppURL:             c.AppURL,
		Port:               c.Port,
		DBDriver:           c.DBDriver,
		TokenExpiry:        c.TokenExpiry,
		MaxTokenExpiry:     c.MaxTokenExpiry,
		RateLimit:          c.RateLimit,
		RateLimitWindow:    c.RateLimitWindow,
		TrustProxy:         c.TrustProxy,
		DefaultExpires:     c.DefaultExpires,
		MaxExpires:         c.MaxExpires,
		MaxUploadSize:      c.MaxUploadSize,
		BotAgentPrefixes:   c.BotAgentPrefixes,
		BotAgentSubstrings: c.BotAgentSubstrings,
		RequestTimeout:     c.RequestTimeout,
		CleanInterval:      c.CleanInterval,
		CleanTimeout:       c.CleanTimeout,
		StorageBackend:     c.StorageBackend,
		S3Region:           c.S3Region,
		S3Bucket:           c.S3Bucket,
		S3Endpoint:         c.S3Endpoint,
	}
}
