// Package server exposes invocations over HTTP alongside health and metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jittakal/ordersetl/internal/pipeline"
	"github.com/jittakal/ordersetl/pkg/event"
)

// maxEventBytes bounds a notification body.
const maxEventBytes = 1 << 20

// HealthChecker interface for checking component health.
type HealthChecker interface {
	Liveness() bool
	Readiness(ctx context.Context) bool
	GetStatus() map[string]string
}

// Invoker runs one invocation for a storage notification.
type Invoker interface {
	Handle(ctx context.Context, e event.S3Event) (pipeline.Response, error)
}

// Server serves notifications, health probes and metrics on one port.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(
	port int,
	invoker Invoker,
	healthChecker HealthChecker,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      NewMux(invoker, healthChecker, registry, logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// NewMux wires the routes. A nil registry disables /metrics.
func NewMux(invoker Invoker, healthChecker HealthChecker, registry *prometheus.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", EventsHandler(invoker, logger))
	mux.HandleFunc("GET /health/live", LivenessHandler(healthChecker, logger))
	mux.HandleFunc("GET /health/ready", ReadinessHandler(healthChecker, logger))
	if registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// Start binds the listen address and serves in the background. Bind
// failures such as a port already in use are returned.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("starting http server", "addr", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight invocations.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// EventsHandler runs one invocation per request. The body is an S3 event
// notification as sent by S3-compatible webhooks.
func EventsHandler(invoker Invoker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		e, err := event.Parse(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp, err := invoker.Handle(r.Context(), e)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode invocation response", "error", err)
		}
	}
}
