// Copyright (c) 2026 Lectio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/taibuivan/lectio/internal/library"
	"github.com/taibuivan/lectio/internal/notify"
	"github.com/taibuivan/lectio/internal/platform/config"
	"github.com/taibuivan/lectio/internal/platform/constants"
	"github.com/taibuivan/lectio/internal/platform/middleware"
	"github.com/taibuivan/lectio/internal/reconcile"
	"github.com/taibuivan/lectio/internal/system/setting"
	"github.com/taibuivan/lectio/internal/users/account"
	"github.com/taibuivan/lectio/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler; always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; 200 only when the store (and Redis, if used) answer.
	Readiness http.HandlerFunc

	// Auth handles login, registration and password resets.
	Auth *auth.Handler

	// Account serves the caller's profile.
	Account *account.Handler

	// Settings exposes the registration toggle and client configuration.
	Settings *setting.Handler

	// Library serves sources, favourites, categories, history and images.
	Library *library.Handler

	// Sync reports and triggers reconciliation runs.
	Sync *reconcile.Handler

	// Live upgrades clients to the notification websocket.
	Live *notify.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.RateLimit(context))
	r.Use(cors.Handler(corsOptions(cfg)))
	r.Use(middleware.Authenticate(verifier))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// Websocket connections outlive any request deadline
	r.Mount("/ws", h.Live.Routes())

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(chimw.Timeout(constants.GlobalRequestTimeout))

		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/users", h.Account.Routes())
		api.Mount("/settings", h.Settings.Routes())
		api.Mount("/sources", h.Library.SourceRoutes())
		api.Mount("/favourites", h.Library.FavouriteRoutes())
		api.Mount("/categories", h.Library.CategoryRoutes())
		api.Mount("/history", h.Library.HistoryRoutes())
		api.Mount("/images", h.Library.ImageRoutes())
		api.Mount("/sync", h.Sync.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// corsOptions allows any origin in development and only CORS_ORIGINS elsewhere.
func corsOptions(cfg *config.Config) cors.Options {
	origins := cfg.CORSOrigins
	if len(origins) == 0 && cfg.IsDevelopment() {
		origins = []string{"*"}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", constants.HeaderXRequestID},
		ExposedHeaders:   []string{constants.HeaderXRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
