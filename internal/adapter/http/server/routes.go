package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Temutjin2k/taxi-dispatch/docs"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/middleware"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, mode types.ServiceMode, log logger.Logger) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, mode, log)
	setupMetricsRoute(mux)
	setupReconcilerRoutes(mux, routes, m)

	switch mode {
	case types.DispatchService:
		setupDispatchRoutes(mux, routes, m)
	}
}

// setupDispatchRoutes setups routes for dispatch service
func setupDispatchRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /drivers/assignable", m.RequireRoles(routes.dispatch.ListAssignable, types.AdminRole))    // Free drivers by unit label
	mux.Handle("POST /trips/{trip_id}/assign", m.RequireRoles(routes.dispatch.AssignDriver, types.AdminRole)) // Assign a driver to a trip
	mux.Handle("GET /trips/requested", m.RequireRoles(routes.trip.ListRequested, types.AdminRole))            // Trips waiting for a driver
	mux.Handle("POST /trips", m.RequireRoles(routes.trip.CreateTrip, types.PassengerRole, types.AdminRole))   // Request a trip
}

// setupReconcilerRoutes setups manual sweep triggers, served in every mode
func setupReconcilerRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /reconciler/sweeps/stuck-busy", m.RequireRoles(routes.reconciler.SweepStuckBusy, types.AdminRole))
	mux.Handle("POST /reconciler/sweeps/idle", m.RequireRoles(routes.reconciler.SweepIdle, types.AdminRole))
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	switch mode {
	case types.DispatchService, types.ReconcilerService:
	default:
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "unknown service mode for swagger setup", "mode", mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(docs.InstanceName)
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
