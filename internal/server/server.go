package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/numlens/numlens/internal/config"
	"github.com/numlens/numlens/internal/core/engine"
	apperrors "github.com/numlens/numlens/internal/errors"
	"github.com/numlens/numlens/internal/observability"
	"github.com/numlens/numlens/internal/server/handlers"
	servermw "github.com/numlens/numlens/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	api    *handlers.CheckHandlers
	health *handlers.HealthManager
}

// New creates a new HTTP server around a check service.
func New(cfg config.ServerConfig, service handlers.CheckService, version string) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)

	// Custom middleware in order: request ID first for correlation, then recovery.
	r.Use(servermw.RequestID)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		err := apperrors.NewNotFoundError("The requested resource was not found")
		HandleError(w, req, err)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		err := apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource")
		HandleError(w, req, err)
	})

	health := handlers.NewHealthManager(version)
	health.RegisterChecker("checkers", handlers.HealthCheckerFunc(func(ctx context.Context) error {
		result := service.HealthCheck(ctx)
		if result.Status == engine.HealthHealthy {
			return nil
		}
		// Degraded overall is tolerated as long as at least one platform
		// probe still answers; the cache component does not count.
		for name, component := range result.Components {
			if name == "cache" {
				continue
			}
			if component.Status == engine.HealthHealthy {
				return nil
			}
		}
		return fmt.Errorf("no platform checker is reachable")
	}))

	s := &Server{
		router: r,
		cfg:    cfg,
		api:    handlers.NewCheckHandlers(service),
		health: health,
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.cfg.Port
}
