package service_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/retry"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service/servicetest"
)

const team = "team-1"

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	fakes  *servicetest.Fakes
	events *service.EventService
	regs   *service.RegistrationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := servicetest.New()
	opts := []service.Option{
		service.WithRetryPolicy(retry.Policy{MaxAttempts: 25, Step: time.Microsecond, Retriable: repository.IsConflict}),
		service.WithClock(func() time.Time { return now }),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return &fixture{
		fakes:  f,
		events: service.NewEventService(f.Collaborators(), opts...),
		regs:   service.NewRegistrationService(f.Collaborators(), opts...),
	}
}

// newEvent returns a publishable public event request.
func newEvent(id string, capacity int) *model.Event {
	return &model.Event{
		TeamID:                      team,
		EventID:                     id,
		Name:                        "Go fundamentals",
		Description:                 "Two mornings of Go.",
		Category:                    "Engineering",
		Type:                        model.EventTypeTeams,
		Audience:                    model.AudiencePublic,
		MaximumNumberOfParticipants: capacity,
		StartDate:                   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:                     time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		StartTime:                   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:                     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

// seedActive stores a published event holding the given registrants.
func (f *fixture) seedActive(id string, capacity int, registered ...string) *model.Event {
	e := newEvent(id, capacity)
	e.Status = model.StatusActive
	e.GraphEventID = "cal-" + id
	e.TeamCardActivityID = "msg-" + id
	e.CreatedBy = "organizer"
	for _, u := range registered {
		e.Register(u)
	}
	f.fakes.Store.Seed(e)
	return e
}

func (f *fixture) stored(t *testing.T, id string) *model.Event {
	t.Helper()
	e := f.fakes.Store.Event(team, id)
	if e == nil {
		t.Fatalf("event %s not stored", id)
	}
	return e
}

func assertCountInvariant(t *testing.T, e *model.Event) {
	t.Helper()
	want := e.RegisteredAttendees.Len() + e.AutoRegisteredAttendees.Len()
	if e.RegisteredAttendeesCount != want {
		t.Fatalf("registered count = %d, want %d", e.RegisteredAttendeesCount, want)
	}
}
