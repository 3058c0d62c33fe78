package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/platform/metrics"
)

func newTestRouter(origin string, checks ...ReadinessCheck) (http.Handler, *metrics.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directory := users.NewService(users.NewMemoryRepository(users.User{ID: "u1", Username: "alice", Name: "Alice"}))
	reg := metrics.NewRegistry()
	return NewRouter(Options{
		Todos:         todos.NewHandler(todos.NewService(todos.NewMemoryRepository(), directory, nil), logger),
		Users:         users.NewHandler(directory, logger),
		Metrics:       reg,
		Logger:        logger,
		AllowedOrigin: origin,
		Readiness:     checks,
	}), reg
}

func do(h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter("*")
	rr := do(h, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestReadyzReportsFailingCheck(t *testing.T) {
	h, _ := newTestRouter("*",
		ReadinessCheck{Name: "store", Check: func(context.Context) error { return nil }},
		ReadinessCheck{Name: "nats", Check: func(context.Context) error { return errors.New("not connected") }},
	)
	rr := do(h, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Body.String() != "nats: not connected" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	h, _ := newTestRouter("*")
	rr := do(h, http.MethodGet, "/api/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"code":"ROUTE_NOT_FOUND"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestOptions_HasCORSHeaders(t *testing.T) {
	h, _ := newTestRouter("http://localhost:8081")

	rr := do(h, http.MethodOptions, "/api/todos", map[string]string{
		"Origin":                        "http://127.0.0.1:8081",
		"Access-Control-Request-Method": "POST",
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:8081" {
		t.Fatalf("unexpected CORS origin: %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
		t.Fatalf("expected PUT in allowed methods, got %q", got)
	}
}

func TestAllowedOriginForRequest(t *testing.T) {
	cases := []struct {
		allowed, origin, want string
	}{
		{"", "http://a.example", "*"},
		{"*", "http://a.example", "*"},
		{"http://app.example", "", "http://app.example"},
		{"http://app.example", "http://app.example", "http://app.example"},
		{"http://app.example", "http://evil.example", "http://app.example"},
		{"http://localhost:3000", "http://[::1]:3000", "http://[::1]:3000"},
		{"http://localhost:3000", "http://127.0.0.1:4000", "http://localhost:3000"},
		{"http://localhost:3000", "https://127.0.0.1:3000", "http://localhost:3000"},
	}
	for _, tc := range cases {
		if got := allowedOriginForRequest(tc.allowed, tc.origin); got != tc.want {
			t.Fatalf("allowed=%q origin=%q: expected %q, got %q", tc.allowed, tc.origin, tc.want, got)
		}
	}
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	h, reg := newTestRouter("*")
	do(h, http.MethodGet, "/api/todos/abc", nil)

	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() != "todoapi_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == "/api/todos/{id}" && labels["status"] == "404" && labels["method"] == "GET" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected request counter for /api/todos/{id}")
	}

	rr := do(h, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "todoapi_http_requests_total") {
		t.Fatalf("unexpected /metrics response: %d", rr.Code)
	}
}
