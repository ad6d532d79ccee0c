package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API around h.
func NewRouter(h *EventHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)

	// Health
	r.Get("/health", HealthCheck)

	// Discovery reads the index and needs no acting user.
	r.Get("/events", h.ListEvents)

	r.Route("/teams/{teamID}/events", func(r chi.Router) {
		r.Use(RequireUser)

		r.Post("/", h.Publish)

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", h.CreateDraft)
			r.Put("/{eventID}", h.UpdateDraft)
			r.Delete("/{eventID}", h.DeleteDraft)
		})

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.UpdateActive)
			r.Post("/close", h.CloseRegistrations)
			r.Patch("/status", h.ChangeStatus)
			r.Post("/reminder", h.SendReminder)
			r.Get("/attendees", h.Attendees)
			r.Get("/attendees.xlsx", h.AttendeesXLSX)
			r.Post("/registrations", h.Register)
			r.Delete("/registrations", h.Unregister)
		})
	})

	return r
}
