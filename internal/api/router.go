package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes. All views are read-only and unauthenticated; the
	// dashboard frontends consume them directly.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/live", s.handleLive)
		r.Get("/history", s.handleHistory)
		r.Get("/forecast", s.handleForecast)
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
	})

	return r
}
