package routes

import (
	"net/http"

	"github.com/templui/secureshare/internal/app"
	"github.com/templui/secureshare/internal/handler"
	"github.com/templui/secureshare/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler()
	transfer := handler.NewTransferHandler(app.TransferService, app.Cfg.MaxUploadSize)
	token := handler.NewTokenHandler(app.TokenService, app.Cfg.AppURL)

	// Guards: uploads and removals accept one-time tokens, token
	// management needs the static key.
	rateLimit := middleware.RateLimit(app.RateLimiter)
	tokenOrKey := middleware.RequireAuth(app.Gate, true)
	keyOnly := middleware.RequireAuth(app.Gate, false)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", home.Index)
	mux.HandleFunc("GET /ping", home.Ping)

	// Download: the key in the path is the credential
	mux.HandleFunc("GET /d/{id}/{key}/{filename}", transfer.Download)

	// ============================================================================
	// AUTHENTICATED ROUTES (x-auth-key)
	// ============================================================================

	mux.HandleFunc("POST /u", middleware.ChainFunc(transfer.Upload, rateLimit, tokenOrKey))
	mux.HandleFunc("DELETE /d/{id}/{key}/{filename}", middleware.ChainFunc(transfer.Remove, rateLimit, tokenOrKey))

	mux.HandleFunc("POST /api/v1/token", middleware.ChainFunc(token.Issue, rateLimit, keyOnly))
	mux.HandleFunc("DELETE /api/v1/token/{token}", middleware.ChainFunc(token.Revoke, rateLimit, keyOnly))

	// Catch-all 404
	mux.HandleFunc("/", home.NotFound)

	// Apply global middleware (executed in order: first to last)
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.WithURLPath,
		middleware.RequestLogging,
		middleware.SecurityHeaders,
		middleware.Timeout(app.Cfg.RequestTimeout),
	)
}
