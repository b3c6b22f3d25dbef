// Package api provides the HTTP chassis for the notification service: a chi
// router with the cross-cutting middleware (panic recovery, request IDs,
// logging, metrics) in front of the handlers in api/handlers.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"outagealert/internal/config"
)

// MetricsCollector records API request telemetry.
type MetricsCollector interface {
	RecordRequest(method, route, status string, duration time.Duration)
}

// Server holds the router and its dependencies.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// MetricsHandler is served on GET /metrics when set.
	MetricsHandler http.Handler

	// V1RouteRegistrars mount domain handlers under /v1. Populated by the
	// entry point to keep handler packages out of this one.
	V1RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer creates a Server. Routes are mounted separately with MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// HTTPServer builds the *http.Server for addr using the configured timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       s.Config.Server.ReadTimeout,
		ReadHeaderTimeout: s.Config.Server.ReadTimeout,
		WriteTimeout:      s.Config.Server.WriteTimeout,
	}
}
