package cmd

import (
	"context"

	"github.com/templui/secureshare/internal/app"
	"github.com/templui/secureshare/internal/config"
	"github.com/templui/secureshare/internal/logger"
)

// loadConfig and openApp are swapped out in tests.
var (
	loadConfig = func() *config.Config {
		cfg := config.Load()
		logger.Init(cfg.IsDevelopment(), "", cfg.AppEnv)
		return cfg
	}
	openApp = app.New
)

// withApp runs fn against a fully wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := openApp(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}
