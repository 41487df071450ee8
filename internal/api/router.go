package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthCheckTimeout bounds each component check so one stuck
// dependency cannot hang the endpoint.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{productKey}/{deviceKey}", func(r chi.Router) {
				r.Get("/state", s.handleDeviceState)
				r.Post("/control/{property}", s.handleControl)
			})
		})
	})

	return r
}

// handleHealth runs the component health checks and reports per
// component. Any failing check turns the overall status degraded with
// a 503, keeping load balancers honest.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	components := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			overall = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, status, map[string]any{
		"status":     overall,
		"version":    s.version,
		"components": components,
	})
}
