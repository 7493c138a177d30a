package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Voice command path.
	r.Post("/command", h.Command)
	r.Post("/intents", h.Intent)

	// Structured appointment access.
	r.Get("/appointments", h.ListAppointments)
	r.Post("/appointments", h.BookAppointment)
	r.Delete("/appointments/{id}", h.CancelAppointment)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
