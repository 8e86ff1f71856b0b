package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/ports/driving"

	// Registers the OpenAPI document served at /swagger/doc.json
	_ "github.com/custodia-labs/signpost-sync/internal/docs"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	syncService driving.SyncService
	authService driving.AuthService

	// Infrastructure
	store  Pinger // local cache health check
	remote Pinger // content API health check (optional)
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	syncService driving.SyncService,
	authService driving.AuthService,
	store Pinger,
	remote Pinger, // can be nil
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:      http.NewServeMux(),
		version:     cfg.Version,
		logger:      logger,
		syncService: syncService,
		authService: authService,
		store:       store,
		remote:      remote,
	}

	handler := NewRecoveryMiddleware(logger).Handler(
		NewLoggingMiddleware(logger).Handler(
			NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Read model (public)
	s.router.HandleFunc("GET /api/v1/state", s.handleGetState)
	s.router.HandleFunc("GET /api/v1/entities/{kind}", s.handleListEntities)
	s.router.HandleFunc("GET /api/v1/entities/{kind}/{id}", s.handleGetEntity)
	s.router.HandleFunc("GET /api/v1/site", s.handleGetSite)
	s.router.HandleFunc("GET /api/v1/sync", s.handleListSyncStates)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/token", s.handleToken)

	// Sync triggers (admin-only)
	s.router.Handle("POST /api/v1/sync", admin(s.handleTriggerSync))
	s.router.Handle("POST /api/v1/sync/{kind}", admin(s.handleTriggerSync))

	// API document
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
