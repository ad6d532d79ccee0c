// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/export"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/search"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service"
)

// Searcher queries the event index.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]model.EventSummary, error)
}

// EventHandler holds all HTTP handlers for the training events API.
type EventHandler struct {
	events *service.EventService
	regs   *service.RegistrationService
	index  Searcher
	logger *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService, regs *service.RegistrationService, index Searcher, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, regs: regs, index: index, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// fail reports err: invalid input is the caller's fault, anything else is
// logged and hidden.
func (h *EventHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeOutcome maps a command result onto the response.
func (h *EventHandler) writeOutcome(w http.ResponseWriter, r *http.Request, outcome model.Outcome, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if outcome == model.OutcomeNotFound {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, model.ResultResponse{Result: outcome.OK()})
}

func keyFrom(r *http.Request) (teamID, eventID string) {
	return chi.URLParam(r, "teamID"), chi.URLParam(r, "eventID")
}

// ─── Drafts ───────────────────────────────────────────────────────────────────

// CreateDraft handles POST /teams/{teamID}/events/drafts
func (h *EventHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	draft, err := h.events.CreateDraft(r.Context(), req.ToEvent(chi.URLParam(r, "teamID")), userFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// UpdateDraft handles PUT /teams/{teamID}/events/drafts/{eventID}
func (h *EventHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.EventID = eventID

	outcome, err := h.events.UpdateDraft(r.Context(), req.ToEvent(teamID), userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// DeleteDraft handles DELETE /teams/{teamID}/events/drafts/{eventID}
func (h *EventHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	outcome, err := h.events.DeleteDraft(r.Context(), teamID, eventID, userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// ─── Published events ─────────────────────────────────────────────────────────

// Publish handles POST /teams/{teamID}/events
// Publishes the draft named by event_id, or a new event when it is empty.
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, outcome, err := h.events.Publish(r.Context(), req.ToEvent(chi.URLParam(r, "teamID")), userFrom(r.Context()))
	if err == nil && outcome == model.OutcomeSucceeded {
		writeJSON(w, http.StatusCreated, event)
		return
	}
	h.writeOutcome(w, r, outcome, err)
}

// UpdateActive handles PUT /teams/{teamID}/events/{eventID}
func (h *EventHandler) UpdateActive(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	var req model.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.EventID = eventID

	outcome, err := h.events.UpdateActive(r.Context(), req.ToEvent(teamID), userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// CloseRegistrations handles POST /teams/{teamID}/events/{eventID}/close
func (h *EventHandler) CloseRegistrations(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	outcome, err := h.events.CloseRegistrations(r.Context(), teamID, eventID, userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// ChangeStatus handles PATCH /teams/{teamID}/events/{eventID}/status
func (h *EventHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	var req model.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outcome, err := h.events.ChangeStatus(r.Context(), teamID, eventID, req.Status, userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// SendReminder handles POST /teams/{teamID}/events/{eventID}/reminder
func (h *EventHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	outcome, err := h.events.SendReminder(r.Context(), teamID, eventID)
	h.writeOutcome(w, r, outcome, err)
}

// Attendees handles GET /teams/{teamID}/events/{eventID}/attendees
// Returns the pivoted attendee table as JSON.
func (h *EventHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	table, outcome, err := h.events.ExportAttendeesToTable(r.Context(), teamID, eventID)
	if err != nil || outcome != model.OutcomeSucceeded {
		h.writeOutcome(w, r, outcome, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// AttendeesXLSX handles GET /teams/{teamID}/events/{eventID}/attendees.xlsx
func (h *EventHandler) AttendeesXLSX(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	table, outcome, err := h.events.ExportAttendeesToTable(r.Context(), teamID, eventID)
	if err != nil || outcome != model.OutcomeSucceeded {
		h.writeOutcome(w, r, outcome, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, table); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.FileName(eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ─── Registrations ────────────────────────────────────────────────────────────

// GetEvent handles GET /teams/{teamID}/events/{eventID}
// Returns the event annotated for the acting user.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	event, outcome, err := h.regs.GetEventForUser(r.Context(), eventID, teamID, userFrom(r.Context()))
	if err != nil || outcome != model.OutcomeSucceeded {
		h.writeOutcome(w, r, outcome, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Register handles POST /teams/{teamID}/events/{eventID}/registrations
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	outcome, err := h.regs.Register(r.Context(), teamID, eventID, userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// Unregister handles DELETE /teams/{teamID}/events/{eventID}/registrations
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	teamID, eventID := keyFrom(r)
	outcome, err := h.regs.Unregister(r.Context(), teamID, eventID, userFrom(r.Context()))
	h.writeOutcome(w, r, outcome, err)
}

// ─── Discovery ────────────────────────────────────────────────────────────────

// ListEvents handles GET /events?team=&status=&q=
// Reads the search index, which may lag behind recent changes.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := search.Query{
		TeamID: q.Get("team"),
		Status: model.Status(q.Get("status")),
		Text:   q.Get("q"),
	}
	if query.Status != "" && !query.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status "+string(query.Status))
		return
	}

	events, err := h.index.Search(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.EventSummary{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
