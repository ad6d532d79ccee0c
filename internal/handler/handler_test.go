package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/export"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/handler"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/retry"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/search"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service/servicetest"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSearcher struct {
	got     search.Query
	results []model.EventSummary
	err     error
}

func (s *fakeSearcher) Search(_ context.Context, q search.Query) ([]model.EventSummary, error) {
	s.got = q
	return s.results, s.err
}

type server struct {
	fakes  *servicetest.Fakes
	search *fakeSearcher
	http   http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()

	f := servicetest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []service.Option{
		service.WithRetryPolicy(retry.Policy{MaxAttempts: 5, Step: time.Microsecond, Retriable: repository.IsConflict}),
		service.WithClock(func() time.Time { return now }),
		service.WithLogger(logger),
	}
	s := &fakeSearcher{}
	h := handler.NewEventHandler(
		service.NewEventService(f.Collaborators(), opts...),
		service.NewRegistrationService(f.Collaborators(), opts...),
		s, logger,
	)
	return &server{fakes: f, search: s, http: handler.NewRouter(h, logger)}
}

func (s *server) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if user != "" {
		req.Header.Set(handler.UserHeader, user)
	}
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)
	return rec
}

const eventBody = `{
	"name": "Go fundamentals",
	"type": "teams",
	"audience": "public",
	"maximum_number_of_participants": 10,
	"start_date": "2026-03-10T00:00:00Z",
	"end_date": "2026-03-10T00:00:00Z"
}`

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	var res model.ResultResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return res.Result
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestTeamRoutesRequireUser(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/teams/team-1/events/drafts", "", eventBody)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreateDraft(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/teams/team-1/events/drafts", "organizer", eventBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var e model.Event
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.EventID == "" || e.Status != model.StatusDraft || e.CreatedBy != "organizer" {
		t.Fatalf("draft = %+v", e)
	}
}

func TestCreateDraftRejectsBadBody(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/teams/team-1/events/drafts", "organizer", `{"unknown": 1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPublishThenRegister(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/teams/team-1/events", "organizer", eventBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("publish status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var e model.Event
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}

	path := "/teams/team-1/events/" + e.EventID + "/registrations"
	rec = s.do(t, http.MethodPost, path, "alice", "")
	if rec.Code != http.StatusOK || !decodeResult(t, rec) {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/teams/team-1/events/"+e.EventID, "alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var ue struct {
		IsRegisteredForUser bool `json:"is_registered_for_user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&ue); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ue.IsRegisteredForUser {
		t.Fatal("expected alice to be registered")
	}

	rec = s.do(t, http.MethodDelete, path, "alice", "")
	if rec.Code != http.StatusOK || !decodeResult(t, rec) {
		t.Fatalf("unregister status = %d", rec.Code)
	}
}

func TestPublishValidationIsBadRequest(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	body := strings.Replace(eventBody, `"maximum_number_of_participants": 10`, `"maximum_number_of_participants": 0`, 1)
	rec := s.do(t, http.MethodPost, "/teams/team-1/events", "organizer", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestOutcomeMapping(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	draft := &model.Event{TeamID: "team-1", EventID: "draft-1", Name: "Draft", Status: model.StatusDraft, MaximumNumberOfParticipants: 5}
	s.fakes.Store.Seed(draft)

	rec := s.do(t, http.MethodPost, "/teams/team-1/events/missing/registrations", "alice", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = s.do(t, http.MethodPost, "/teams/team-1/events/draft-1/registrations", "alice", "")
	if rec.Code != http.StatusOK || decodeResult(t, rec) {
		t.Fatalf("declined status = %d, want 200 with result false", rec.Code)
	}

	rec = s.do(t, http.MethodPatch, "/teams/team-1/events/draft-1/status", "organizer", `{"status":"archived"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	s.fakes.Store.Err = errors.New("connection reset")

	rec := s.do(t, http.MethodPost, "/teams/team-1/events/ev/close", "organizer", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatal("internal errors must not leak")
	}
}

func TestAttendeesXLSX(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	e := &model.Event{
		TeamID: "team-1", EventID: "ev", Name: "Go", Status: model.StatusActive,
		MaximumNumberOfParticipants: 5,
	}
	e.Register("alice")
	s.fakes.Store.Seed(e)

	rec := s.do(t, http.MethodGet, "/teams/team-1/events/ev/attendees.xlsx", "organizer", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != export.ContentType {
		t.Fatalf("content type = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attendees_ev.xlsx") {
		t.Fatalf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected a workbook")
	}
}

func TestListEvents(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/events?team=team-1&status=active&q=go", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := search.Query{TeamID: "team-1", Status: model.StatusActive, Text: "go"}
	if s.search.got != want {
		t.Fatalf("query = %+v, want %+v", s.search.got, want)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %s, want []", body)
	}

	rec = s.do(t, http.MethodGet, "/events?status=archived", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
