// Package server wires storage, token service, session manager and HTTP
// handlers into a runnable ContactKeeper API server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/contactkeeper/internal/crypto"
	"github.com/iudanet/contactkeeper/internal/server/config"
	"github.com/iudanet/contactkeeper/internal/server/handlers"
	"github.com/iudanet/contactkeeper/internal/server/jwt"
	"github.com/iudanet/contactkeeper/internal/server/middleware"
	"github.com/iudanet/contactkeeper/internal/server/session"
	"github.com/iudanet/contactkeeper/internal/server/storage"
	"github.com/iudanet/contactkeeper/internal/server/storage/postgres"
	"github.com/iudanet/contactkeeper/internal/server/storage/sqlite"
)

// Store объединяет всё, что серверу нужно от хранилища
type Store interface {
	storage.UserStorage
	storage.ContactStorage
	PingContext(ctx context.Context) error
	Close() error
}

// OpenStorage выбирает бэкенд по DSN: postgres:// и postgresql:// идут в
// PostgreSQL, всё остальное считается путём к файлу SQLite
func OpenStorage(ctx context.Context, dsn string) (Store, error) {
	if postgres.IsDSN(dsn) {
		s, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return s, nil
	}

	s, err := sqlite.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite storage: %w", err)
	}
	return s, nil
}

// Server is the HTTP API server with its dependencies.
type Server struct {
	logger          *slog.Logger
	store           Store
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New opens storage from cfg and builds a Server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := OpenStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	srv, err := newServer(cfg, logger, store, crypto.DefaultParams(), version)
	if err != nil {
		store.Close()
		return nil, err
	}
	return srv, nil
}

func newServer(cfg *config.Config, logger *slog.Logger, store Store, params crypto.Params, version string) (*Server, error) {
	hasher, err := crypto.NewHasher(params)
	if err != nil {
		return nil, fmt.Errorf("create hasher: %w", err)
	}

	tokens, err := jwt.NewService(jwt.Config{
		AccessSecret:    []byte(cfg.AccessSecret),
		RefreshSecret:   []byte(cfg.RefreshSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create token service: %w", err)
	}

	sessions, err := session.NewService(logger, store, hasher, tokens)
	if err != nil {
		return nil, fmt.Errorf("create session service: %w", err)
	}

	return &Server{
		logger: logger,
		store:  store,
		httpServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           NewRouter(logger, store, tokens, sessions, version),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// NewRouter регистрирует маршруты API и оборачивает их общими middleware
func NewRouter(
	logger *slog.Logger,
	store Store,
	verifier middleware.TokenVerifier,
	sessions handlers.SessionManager,
	version string,
) http.Handler {
	authHandler := handlers.NewAuthHandler(logger, sessions)
	contactHandler := handlers.NewContactHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, store, version)

	requireAccess := middleware.AuthMiddleware(logger, verifier)
	requireRefresh := middleware.RefreshMiddleware(logger, verifier)

	mux := http.NewServeMux()

	// Публичные эндпоинты
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	// Ротация по refresh token
	mux.Handle("POST /api/v1/auth/refresh", requireRefresh(http.HandlerFunc(authHandler.Refresh)))

	// Защищённые access token
	mux.Handle("POST /api/v1/auth/logout", requireAccess(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("POST /api/v1/contacts", requireAccess(http.HandlerFunc(contactHandler.Create)))
	mux.Handle("GET /api/v1/contacts", requireAccess(http.HandlerFunc(contactHandler.List)))
	mux.Handle("GET /api/v1/contacts/{id}", requireAccess(http.HandlerFunc(contactHandler.Get)))
	mux.Handle("PATCH /api/v1/contacts/{id}", requireAccess(http.HandlerFunc(contactHandler.Update)))
	mux.Handle("DELETE /api/v1/contacts/{id}", requireAccess(http.HandlerFunc(contactHandler.Delete)))

	// Recovery внутри logging: паника попадает в access log как 500
	return middleware.Chain(mux,
		middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}),
		middleware.RecoveryMiddleware(logger),
	)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		s.logger.Info("server starting", slog.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", slog.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Close releases the storage.
func (s *Server) Close() error {
	return s.store.Close()
}
