package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the per-component probes in the health
// endpoint.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		if s.secCfg.TicketSecret != "" {
			r.Post("/auth/ws-ticket", s.handleWSTicket)
		}

		r.Route("/peripherals", func(r chi.Router) {
			r.Get("/", s.handleListPeripherals)
			r.Delete("/", s.handleRemoveAllPeripherals)
			r.Post("/refresh", s.handleRefreshPeripherals)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.handleRemovePeripheral)
				r.Get("/state", s.handleGetPeripheralState)
				r.Post("/aggregate", s.handleAggregate)
			})
		})

		r.Post("/commands", s.handleCommand)
	})

	// Monitor channel (ticket validated in handler when configured)
	path := s.wsCfg.Path
	if path == "" {
		path = "/ws"
	}
	r.Get(path, s.handleChannel)

	return r
}

// handleHealth reports the server status and the state of its optional
// telemetry backends.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{}
	if s.mqtt != nil {
		components["mqtt"] = healthStatus(s.mqtt.HealthCheck(ctx))
	}
	if s.influx != nil {
		components["influxdb"] = healthStatus(s.influx.HealthCheck(ctx))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     s.version,
		"peripherals": s.registry.Count(),
		"channel":     s.channel.IsConnected(),
		"components":  components,
	})
}

func healthStatus(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "ok"
}
