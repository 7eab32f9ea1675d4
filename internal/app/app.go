// Package app wires the application together: config, logging, tracing,
// model transport, tools, sessions and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coachly/coachly/internal/api"
	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/config"
	"github.com/coachly/coachly/internal/log"
	"github.com/coachly/coachly/internal/observability"
	"github.com/coachly/coachly/internal/profile"
	"github.com/coachly/coachly/internal/session"
	"github.com/coachly/coachly/internal/tools"
	"github.com/coachly/coachly/internal/transport"
)

// otelShutdownTimeout bounds the final trace flush on Close.
const otelShutdownTimeout = 5 * time.Second

// App holds the initialized application.
// Call Close() to release resources.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Pipeline *chat.Pipeline
	Router   *chat.Router
	Sessions *session.Store
	Profiles *profile.Store
	Registry *tools.Registry

	otelShutdown func(context.Context) error
}

// Setup creates and initializes the application.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	a := &App{Config: cfg}

	defer func() {
		if retErr != nil {
			_ = a.Close()
		}
	}()

	a.Logger = provideLogger(cfg)

	if cfg.Otel.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Otel.Endpoint,
			Environment: cfg.Otel.Environment,
			ServiceName: cfg.Otel.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.otelShutdown = shutdown
	}

	a.Profiles = provideProfileStore()
	a.Sessions = session.NewStore()

	registry, err := provideRegistry(a.Profiles)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	gemini, err := provideTransport(ctx, cfg, registry, a.Logger)
	if err != nil {
		return nil, err
	}

	metrics, err := chat.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	pipeline, err := chat.New(chat.Config{
		Transport: gemini,
		Registry:  registry,
		Logger:    a.Logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat pipeline: %w", err)
	}
	a.Pipeline = pipeline
	a.Router = chat.NewRouter(gemini, pipeline.Parser(), a.Logger)

	return a, nil
}

// Server builds the HTTP server from the initialized application.
func (a *App) Server() *api.Server {
	return api.NewServer(api.ServerConfig{
		Pipeline:       a.Pipeline,
		Router:         a.Router,
		Sessions:       a.Sessions,
		Logger:         a.Logger,
		AllowedOrigins: a.Config.CORSOrigins,
		RateLimit:      a.Config.RateLimit,
		RateBurst:      a.Config.RateBurst,
	})
}

// Close releases application resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	var errs []error
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracing: %w", err))
		}
		a.otelShutdown = nil
	}
	return errors.Join(errs...)
}

func provideLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{
		Level: parseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func provideProfileStore() *profile.Store {
	store := profile.NewStore()
	store.Seed()
	return store
}

func provideRegistry(profiles *profile.Store) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	if err := tools.RegisterFitnessTools(registry, profiles); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return registry, nil
}

func provideTransport(ctx context.Context, cfg *config.Config, registry *tools.Registry, logger log.Logger) (*transport.Gemini, error) {
	temp := cfg.Temperature
	gemini, err := transport.NewGemini(ctx, transport.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.ModelName,
		Tools:       registry.Declarations(),
		Temperature: &temp,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model transport: %w", err)
	}
	return gemini, nil
}
