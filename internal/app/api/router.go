// Package api assembles the HTTP surface: middleware, probes, metrics and
// the domain routes.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/platform/httpapi"
	"github.com/todo-1m/todo-api/internal/platform/logging"
	"github.com/todo-1m/todo-api/internal/platform/metrics"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	Todos         *todos.Handler
	Users         *users.Handler
	Metrics       *metrics.Registry
	Logger        *slog.Logger
	AllowedOrigin string
	Readiness     []ReadinessCheck
}

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware(logging.RoutePattern))
	}
	r.Use(corsMiddleware(opts.AllowedOrigin))

	r.NotFound(httpapi.NotFound)
	r.MethodNotAllowed(httpapi.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writePlain(w, http.StatusOK, "ok")
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		for _, rc := range opts.Readiness {
			if err := rc.Check(req.Context()); err != nil {
				logger.WarnContext(req.Context(), "readiness check failed", "check", rc.Name, "error", err)
				writePlain(w, http.StatusServiceUnavailable, rc.Name+": "+err.Error())
				return
			}
		}
		writePlain(w, http.StatusOK, "ok")
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	if opts.Todos != nil {
		opts.Todos.Routes(r)
	}
	if opts.Users != nil {
		opts.Users.Routes(r)
	}
	return r
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// corsMiddleware answers every OPTIONS request itself so that preflights
// reach no route handler.
func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin, Access-Control-Request-Headers")
			w.Header().Set("Access-Control-Allow-Origin", allowedOriginForRequest(allowedOrigin, r.Header.Get("Origin")))
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

			requestHeaders := strings.TrimSpace(r.Header.Get("Access-Control-Request-Headers"))
			if requestHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", requestHeaders)
			} else {
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowedOriginForRequest(allowed, requestOrigin string) string {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" || allowed == "*" {
		return "*"
	}

	origin := strings.TrimSpace(requestOrigin)
	if origin == "" {
		return allowed
	}
	if origin == allowed || isEquivalentLoopbackOrigin(origin, allowed) {
		return origin
	}
	return allowed
}

// isEquivalentLoopbackOrigin treats localhost, 127.0.0.1 and ::1 as the same
// host when scheme and port agree.
func isEquivalentLoopbackOrigin(originA, originB string) bool {
	a, err := url.Parse(originA)
	if err != nil {
		return false
	}
	b, err := url.Parse(originB)
	if err != nil {
		return false
	}
	if !isLoopbackHost(a.Hostname()) || !isLoopbackHost(b.Hostname()) {
		return false
	}
	if a.Port() != b.Port() {
		return false
	}
	return strings.EqualFold(a.Scheme, b.Scheme)
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
