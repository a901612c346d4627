package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/numlens/numlens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Standard health endpoints
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// API endpoints
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.api.Check)
		r.Get("/stats", s.api.Stats)
		r.Get("/health", s.api.Health)
		r.Get("/cache/stats", s.api.CacheStats)
		r.Post("/cache/invalidate", s.api.CacheInvalidate)
		r.Post("/cache/clear", s.api.CacheClear)
	})
}
