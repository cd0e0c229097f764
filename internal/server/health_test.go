package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker implements HealthChecker for testing
type mockHealthChecker struct {
	liveness  bool
	readiness bool
	status    map[string]string
}

func (m *mockHealthChecker) Liveness() bool {
	return m.liveness
}

func (m *mockHealthChecker) Readiness(ctx context.Context) bool {
	return m.readiness
}

func (m *mockHealthChecker) GetStatus() map[string]string {
	return m.status
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLivenessHandler(t *testing.T) {
	tests := []struct {
		name       string
		alive      bool
		wantCode   int
		wantStatus string
	}{
		{"alive", true, http.StatusOK, "alive"},
		{"not alive", false, http.StatusServiceUnavailable, "not alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := LivenessHandler(&mockHealthChecker{liveness: tt.alive}, discardLogger())
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if response.Timestamp == "" {
				t.Error("timestamp should be set")
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantCode   int
		wantStatus string
	}{
		{"ready", true, http.StatusOK, "ready"},
		{"not ready", false, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockHealthChecker{
				readiness: tt.ready,
				status:    map[string]string{"storage": "s3"},
			}
			handler := ReadinessHandler(checker, discardLogger())
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s, want application/json", ct)
			}
			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if response.Checks["storage"] != "s3" {
				t.Errorf("checks = %v, want storage=s3", response.Checks)
			}
		})
	}
}

func TestStatusChecker(t *testing.T) {
	checker := NewStatusChecker()

	if !checker.Liveness() {
		t.Error("new checker should be alive")
	}
	if checker.Readiness(context.Background()) {
		t.Error("new checker should not be ready")
	}

	checker.MarkReady()
	if !checker.Readiness(context.Background()) {
		t.Error("checker should be ready after MarkReady")
	}

	checker.SetCheck("catalog", "glue")
	status := checker.GetStatus()
	if status["catalog"] != "glue" {
		t.Errorf("GetStatus() = %v, want catalog=glue", status)
	}
	status["catalog"] = "mutated"
	if checker.GetStatus()["catalog"] != "glue" {
		t.Error("GetStatus() should return a copy")
	}

	checker.MarkNotReady()
	if checker.Readiness(context.Background()) {
		t.Error("checker should not be ready after MarkNotReady")
	}
}
