package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/secureshare/internal/config"
	"github.com/templui/secureshare/internal/db"
	"github.com/templui/secureshare/internal/middleware"
	"github.com/templui/secureshare/internal/repository"
	"github.com/templui/secureshare/internal/service"
	"github.com/templui/secureshare/internal/storage"
)

// App is the service context shared by routes and the reaper.
type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Blobs           storage.Storage
	Gate            *service.Gate
	TokenService    *service.TokenService
	TransferService *service.TransferService
	Reaper          *service.Reaper
	RateLimiter     *middleware.RateLimiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return NewWithDeps(cfg, database, blobs), nil
}

// NewWithDeps wires services on top of an open, migrated database and an
// optional blob store. It clears cfg.UploadKey once the gate holds the key.
func NewWithDeps(cfg *config.Config, database *sqlx.DB, blobs storage.Storage) *App {
	// Repositories
	objectRepository := repository.NewObjectRepository(database)
	tokenRepository := repository.NewTokenRepository(database)

	// Services
	tokenService := service.NewTokenService(tokenRepository, cfg.TokenExpiry, cfg.MaxTokenExpiry)
	gate := service.NewGate(cfg.UploadKey, tokenService)
	// The enclave holds the key from here on
	cfg.UploadKey = ""
	transferService := service.NewTransferService(
		objectRepository,
		blobs,
		service.NewAgentFilter(cfg.BotAgentPrefixes, cfg.BotAgentSubstrings),
		service.TransferConfig{
			BaseURL:        cfg.AppURL,
			DefaultExpires: cfg.DefaultExpires,
			MaxExpires:     cfg.MaxExpires,
		},
	)
	reaper := service.NewReaper(objectRepository, tokenRepository, blobs, cfg.CleanInterval, cfg.CleanTimeout)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, cfg.TrustProxy)
	}

	return &App{
		Cfg:             cfg,
		DB:              database,
		Blobs:           blobs,
		Gate:            gate,
		TokenService:    tokenService,
		TransferService: transferService,
		Reaper:          reaper,
		RateLimiter:     limiter,
	}
}

func (a *App) Close() error {
	if a.RateLimiter != nil {
		a.RateLimiter.Close()
	}
	return db.Close(a.DB)
}
