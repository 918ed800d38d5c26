// Package router sets up all HTTP routes and middleware chains for the
// ZBase category API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"zbase/internal/handlers"
	"zbase/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and routes wired up. limiter may be nil to disable rate limiting.
// trustProxy makes forwarded client addresses count for logging and rate
// limiting; without it the connection's remote address is used.
func New(categories *handlers.Categories, limiter *middleware.RateLimiter, trustProxy bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	if trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	// Health check, never rate limited.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categories.List)
			r.Post("/", categories.Create)
			r.Get("/tree", categories.Tree)
			r.Get("/integrity", categories.Integrity)
			r.Get("/{id}", categories.Get)
			r.Patch("/{id}", categories.Update)
			r.Delete("/{id}", categories.Delete)
		})

		r.Get("/cache-log", categories.Invalidations)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not found."}`))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"Method not allowed."}`))
}
