// Package server is the composition root: it opens the store, builds the
// services and handlers, and maps them onto routes.
//
// Dependency flow:
//
//	config.Config → repository.Store (sqlite | postgres)
//	             → services (auth, model, annotation)
//	             → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/roomview/internal/auth"
	"github.com/sakif/roomview/internal/config"
	"github.com/sakif/roomview/internal/handler"
	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/middleware"
	"github.com/sakif/roomview/internal/repository"
	postgresRepo "github.com/sakif/roomview/internal/repository/postgres"
	sqliteRepo "github.com/sakif/roomview/internal/repository/sqlite"
	"github.com/sakif/roomview/internal/service"
)

// shutdownTimeout is how long in-flight requests get after SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	store    repository.Store
	registry *prometheus.Registry
}

// New opens the store selected by cfg.DBDriver and wires every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore wires the routes over an already open store.
func NewWithStore(cfg config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		registry: reg,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// OpenStore opens the storage backend named by cfg.DBDriver.
func OpenStore(cfg config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgresRepo.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
//	GET  /healthz                          liveness
//	GET  /metrics                          Prometheus scrape
//	GET  /api/schema                       insert field contracts
//	POST /api/auth/register                create account
//	POST /api/auth/login                   issue token
//	POST /api/auth/logout                  clear cookie
//	GET  /api/me                           current user          [auth]
//	GET  /api/models                       list models
//	POST /api/models                       register a model      [auth]
//	GET  /api/models/{id}                  get a model
//	POST /api/annotations                  create an annotation  [auth]
//	GET  /api/annotations/{id}             get an annotation
//	GET  /api/rooms/{roomID}/annotations   list a room's annotations
//
// MIDDLEWARE ORDER MATTERS:
// middleware runs outermost-first in the order it is added.
//   - RequestID first, so every later log line can carry the id
//   - RealIP before the logger, so the logged address is the client's
//   - Logger and Metrics outside Recoverer, so a recovered panic is still
//     logged and counted as a 500
func (s *Server) setupRoutes() error {
	m := metrics.New(s.registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(m))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(s.store, tokens, auth.NewPasswordService(), m, s.logger)
	modelService := service.NewModelService(s.store, m, s.logger)
	annotationService := service.NewAnnotationService(s.store, m, s.logger)

	authHandler := handler.NewAuthHandler(authService, m, s.logger)
	modelHandler := handler.NewModelHandler(modelService, m, s.logger)
	annotationHandler := handler.NewAnnotationHandler(annotationService, m, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/schema", handler.HandleSchema)

		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Get("/models", modelHandler.HandleList)
		r.Get("/models/{id}", modelHandler.HandleGet)
		r.Get("/annotations/{id}", annotationHandler.HandleGet)
		r.Get("/rooms/{roomID}/annotations", annotationHandler.HandleListByRoom)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/models", modelHandler.HandleCreate)
			r.Post("/annotations", annotationHandler.HandleCreate)
		})
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the store.
//
// GRACEFUL SHUTDOWN:
// on a signal the listener stops accepting connections, and srv.Shutdown waits
// up to shutdownTimeout for running handlers to finish. Only then does the
// deferred store.Close run, so no handler sees a closed database mid-request.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
