package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/booklight/highlight-relay/internal/metrics"
	"github.com/booklight/highlight-relay/internal/middleware"
)

// maxBodyBytes caps request bodies; highlight payloads are a few KB at most.
const maxBodyBytes = 64 << 10

// NewRouter creates a Chi router with all relay endpoints.
// The API is POST-only: any other method gets a 405 regardless of path.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.MaxBodySize(maxBodyBytes))
	r.Use(postOnly)

	r.Post("/register", handler.HandleRegister)
	r.Post("/refresh", handler.HandleRefresh)
	r.Post("/quote", handler.HandleQuote)
	r.Post("/relay", handler.HandleRelay)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Unknown endpoint", http.StatusNotFound)
	})

	return r
}

// postOnly rejects every non-POST request before routing, so unknown paths
// with the wrong method still get 405 rather than 404.
func postOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Use POST", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
