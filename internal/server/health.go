package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// StatusChecker is a HealthChecker driven by the process: it is alive once
// created and ready after MarkReady until MarkNotReady.
type StatusChecker struct {
	mu     sync.RWMutex
	ready  bool
	checks map[string]string
}

// NewStatusChecker creates a checker that is alive but not ready.
func NewStatusChecker() *StatusChecker {
	return &StatusChecker{checks: map[string]string{}}
}

// MarkReady flags the process as ready to accept invocations.
func (c *StatusChecker) MarkReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
}

// MarkNotReady flags the process as draining.
func (c *StatusChecker) MarkNotReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
}

// SetCheck records the status of a named component.
func (c *StatusChecker) SetCheck(component, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[component] = status
}

func (c *StatusChecker) Liveness() bool {
	return true
}

func (c *StatusChecker) Readiness(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// GetStatus returns a copy of the component checks.
func (c *StatusChecker) GetStatus() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.checks))
	for k, v := range c.checks {
		out[k] = v
	}
	return out
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// LivenessHandler returns a handler for Kubernetes liveness probes.
// Liveness probes should only fail if the process needs to be restarted.
func LivenessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "alive"
		statusCode := http.StatusOK

		if !checker.Liveness() {
			status = "not alive"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode liveness response", "error", err)
		}
	}
}

// ReadinessHandler returns a handler for Kubernetes readiness probes.
// Readiness probes indicate if the application can handle traffic.
func ReadinessHandler(checker HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ready"
		statusCode := http.StatusOK

		if !checker.Readiness(r.Context()) {
			status = "not ready"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checker.GetStatus(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode readiness response", "error", err)
		}
	}
}
