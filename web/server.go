// Package web assembles the router and runs the HTTP API server.
package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flightdeck-cd/flightdeck/config"
	"github.com/flightdeck-cd/flightdeck/web/routes"
)

// NewRouter builds the chi router with all API routes registered.
func NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	routes.RegisterProjectRoutes(r)
	routes.RegisterUtilityRoutes(r)

	return r
}

// Run starts the HTTP server and blocks until it fails.
func Run(cfg *config.Config) error {
	address := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	slog.Info("Server starting", "address", address)
	return http.ListenAndServe(address, NewRouter())
}
