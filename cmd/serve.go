package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/coachly/coachly/internal/app"
	"github.com/coachly/coachly/internal/config"
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			a.Logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	a.Logger.Info("starting coachly", "version", AppVersion, "model", cfg.ModelName)
	return a.Server().Run(ctx, cfg.Addr)
}
