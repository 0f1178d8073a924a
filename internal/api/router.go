package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires all routes. staticDir serves the dashboard page and its
// assets; pass "" to disable static serving.
func NewRouter(h *Handler, staticDir string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Field nodes post here; deliberately unauthenticated
	r.Post("/data", h.HandleIngest)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.HandleDashboard)
		r.Get("/alerts", h.HandleListAlerts)
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)

		// Operator-only endpoints
		r.Post("/alerts/{id}/acknowledge", h.RequireSession(h.HandleAcknowledge))
		r.Get("/export", h.RequireSession(h.HandleExport))
	})

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Handle("/*", fs)
	}

	return r
}
