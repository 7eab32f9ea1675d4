// Package api exposes the coaching chat over HTTP.
//
// Endpoints:
//
//	GET  /health                    liveness probe
//	GET  /ready                     readiness probe
//	GET  /api/v1/sessions           list sessions
//	POST /api/v1/sessions           create session
//	GET  /api/v1/sessions/{id}      fetch one session with its turns
//	DELETE /api/v1/sessions/{id}    delete session
//	POST /api/v1/chat               run one chat turn (JSON response)
//	POST /api/v1/chat/stream        run one chat turn (SSE word deltas)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: logging, recovery, request ID, CORS
//   - ratelimit.go: per-client rate limiting
//   - health.go: health check endpoints
//   - session.go: session management endpoints
//   - chat.go: chat turn endpoints (sync and SSE)
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/log"
	"github.com/coachly/coachly/internal/session"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections. No WriteTimeout: SSE responses stay open for
	// the duration of a model turn.
	IdleTimeout = 120 * time.Second
)

// ServerConfig carries the server's dependencies and settings.
type ServerConfig struct {
	Pipeline *chat.Pipeline
	Router   *chat.Router
	Sessions *session.Store
	Logger   log.Logger

	// AllowedOrigins lists CORS origins; empty disables CORS headers.
	AllowedOrigins []string

	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server is the HTTP server for the coaching chat API.
type Server struct {
	mux    *http.ServeMux
	cfg    ServerConfig
	logger log.Logger

	health  *HealthHandler
	session *SessionHandler
	chat    *ChatHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		cfg:     cfg,
		logger:  cfg.Logger,
		health:  NewHealthHandler(cfg.Pipeline),
		session: NewSessionHandler(cfg.Sessions, cfg.Logger),
		chat:    NewChatHandler(cfg.Pipeline, cfg.Router, cfg.Sessions, cfg.Logger),
	}

	s.health.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Order: recovery → request ID → logging → CORS → rate limit → handler.
func (s *Server) Handler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		middlewares = append(middlewares, corsMiddleware(s.cfg.AllowedOrigins))
	}
	if s.cfg.RateLimit > 0 {
		middlewares = append(middlewares, newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst, s.logger).middleware)
	}
	return chain(s.mux, middlewares...)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
