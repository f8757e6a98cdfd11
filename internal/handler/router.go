package handler

import (
	"net/http"

	"github.com/dandantas/refreshwatch/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

// Router handles HTTP routing
type Router struct {
	progressHandler *ProgressHandler
	sessionHandler  *SessionHandler
	healthHandler   *HealthHandler
	corsConfig      middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	progressHandler *ProgressHandler,
	sessionHandler *SessionHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		progressHandler: progressHandler,
		sessionHandler:  sessionHandler,
		healthHandler:   healthHandler,
		corsConfig:      corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// Outermost first: correlation ID must exist before logging
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(rt.corsConfig))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", rt.healthHandler.Health)
	r.Get("/ready", rt.healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/progress", rt.progressHandler.Get)
		r.Get("/progress/fragment", rt.progressHandler.Fragment)
		r.Post("/refresh", rt.progressHandler.Refresh)
		r.Get("/sessions", rt.sessionHandler.List)
		r.Get("/sessions/{id}", rt.sessionHandler.Get)
	})

	return r
}
