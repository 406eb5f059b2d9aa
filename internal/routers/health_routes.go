package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"swipe/interview/internal/handlers"
	"swipe/interview/internal/metrics"
)

// HealthRoutes mounts probes and the Prometheus scrape endpoint outside /api.
func HealthRoutes(router chi.Router, health *handlers.HealthHandler) {
	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.NoCache)
		r.Get("/healthz", health.HealthzHandler)
		r.Get("/readyz", health.ReadyzHandler)
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
}
