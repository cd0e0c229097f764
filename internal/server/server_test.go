package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jittakal/ordersetl/internal/pipeline"
	"github.com/jittakal/ordersetl/pkg/event"
)

type mockInvoker struct {
	mu     sync.Mutex
	events []event.S3Event
	resp   pipeline.Response
	err    error
}

func (m *mockInvoker) Handle(ctx context.Context, e event.S3Event) (pipeline.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.resp, m.err
}

const notification = `{"Records":[{"eventSource":"minio:s3","eventName":"s3:ObjectCreated:Put",` +
	`"s3":{"bucket":{"name":"raw"},"object":{"key":"orders.json"}}}]}`

func newTestMux(invoker Invoker, checker HealthChecker, registry *prometheus.Registry) *httptest.Server {
	return httptest.NewServer(NewMux(invoker, checker, registry, discardLogger()))
}

func TestEventsHandler_Success(t *testing.T) {
	invoker := &mockInvoker{resp: pipeline.Response{StatusCode: 200, Body: pipeline.MessageSuccess}}
	srv := newTestMux(invoker, &mockHealthChecker{}, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(notification))
	if err != nil {
		t.Fatalf("POST /events error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["statusCode"] != float64(200) || got["body"] != pipeline.MessageSuccess {
		t.Errorf("response = %v", got)
	}

	if len(invoker.events) != 1 {
		t.Fatalf("invocations = %d, want 1", len(invoker.events))
	}
	if name := invoker.events[0].Records[0].S3.Bucket.Name; name != "raw" {
		t.Errorf("bucket = %s, want raw", name)
	}
}

func TestEventsHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		invokeErr  error
		wantCode   int
		wantBody   string
		wantInvoke bool
	}{
		{
			name:     "malformed body",
			body:     `{"Records":`,
			wantCode: http.StatusBadRequest,
			wantBody: "invalid trigger event",
		},
		{
			name:       "invocation fails",
			body:       notification,
			invokeErr:  fmt.Errorf("crawler busy"),
			wantCode:   http.StatusInternalServerError,
			wantBody:   "crawler busy",
			wantInvoke: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &mockInvoker{err: tt.invokeErr}
			srv := newTestMux(invoker, &mockHealthChecker{}, nil)
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /events error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", body, tt.wantBody)
			}
			if got := len(invoker.events) > 0; got != tt.wantInvoke {
				t.Errorf("invoked = %v, want %v", got, tt.wantInvoke)
			}
		})
	}
}

func TestServer_Routes(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_etl_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	checker := &mockHealthChecker{liveness: true, readiness: true}
	srv := newTestMux(&mockInvoker{}, checker, registry)
	defer srv.Close()

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/events", http.StatusMethodNotAllowed},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status code = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.path == "/metrics" {
				body, _ := io.ReadAll(resp.Body)
				if !strings.Contains(string(body), "orders_etl_test_total 1") {
					t.Errorf("metrics body missing counter: %s", body)
				}
			}
		})
	}
}

func TestServer_NoRegistry(t *testing.T) {
	srv := newTestMux(&mockInvoker{}, &mockHealthChecker{liveness: true}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	server := NewServer(0, &mockInvoker{}, NewStatusChecker(), prometheus.NewRegistry(), discardLogger())
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestServer_StartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	server := NewServer(port, &mockInvoker{}, NewStatusChecker(), nil, discardLogger())
	if err := server.Start(); err == nil {
		_ = server.Shutdown(context.Background())
		t.Fatal("Start() should fail when the port is taken")
	}
}
