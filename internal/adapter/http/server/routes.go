package server

import (
	"net/http"

	"github.com/Temutjin2k/triplog/internal/adapter/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)
	setupMetricsRoute(mux)

	setupTripRoutes(mux, routes, m)

	if routes.tracker != nil {
		mux.Handle("GET /ws/tracker", routes.tracker) // WebSocket connection for the tracking device
	}
}

// setupTripRoutes setups routes of the caller's trip session.
// Every route needs an authenticated user, role checks happen inside for admin scopes.
func setupTripRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /trips/start", m.RequireRoles(routes.trip.Start))               // Start tracking a trip
	mux.Handle("POST /trips/stop", m.RequireRoles(routes.trip.Stop))                 // Stop and save the trip
	mux.Handle("GET /trips/current", m.RequireRoles(routes.trip.Current))            // Current session snapshot
	mux.Handle("POST /trips/fixes", m.RequireRoles(routes.trip.PushFix))             // Push one position fix
	mux.Handle("GET /trips/pending", m.RequireRoles(routes.trip.ListPending))        // Trips the database refused
	mux.Handle("POST /trips/pending/resubmit", m.RequireRoles(routes.trip.Resubmit)) // Retry saving retained trips
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
