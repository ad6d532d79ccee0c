package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service/servicetest"
)

type fakeReminder struct {
	calls   []string
	outcome model.Outcome
	err     error
}

func (r *fakeReminder) SendReminder(_ context.Context, teamID, eventID string) (model.Outcome, error) {
	r.calls = append(r.calls, teamID+"/"+eventID)
	return r.outcome, r.err
}

func newSweeper(t *testing.T, rem Reminder, events ...*model.Event) *ReminderSweeper {
	t.Helper()
	store := servicetest.NewStore(nil)
	for _, e := range events {
		store.Seed(e)
	}
	s := NewReminderSweeper(store, rem, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC) }
	return s
}

func event(id string, status model.Status, start time.Time) *model.Event {
	return &model.Event{TeamID: "team-1", EventID: id, Status: status, StartDate: start, EndDate: start}
}

func TestRunOnceRemindsEventsStartingTomorrow(t *testing.T) {
	t.Parallel()

	tomorrow := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rem := &fakeReminder{outcome: model.OutcomeSucceeded}
	s := newSweeper(t, rem,
		event("due", model.StatusActive, tomorrow),
		event("later", model.StatusActive, tomorrow.AddDate(0, 0, 1)),
		event("draft", model.StatusDraft, tomorrow),
	)

	n, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 || len(rem.calls) != 1 || rem.calls[0] != "team-1/due" {
		t.Fatalf("reminded = %d, calls = %v", n, rem.calls)
	}

	// A second sweep on the same day does not repeat the reminder.
	if n, _ := s.RunOnce(context.Background()); n != 0 || len(rem.calls) != 1 {
		t.Fatalf("second sweep reminded = %d, calls = %v", n, rem.calls)
	}
}

func TestRunOnceRetriesFailedReminders(t *testing.T) {
	t.Parallel()

	tomorrow := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rem := &fakeReminder{err: errors.New("smtp down")}
	s := newSweeper(t, rem, event("due", model.StatusActive, tomorrow))

	if n, err := s.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("run = %d, %v", n, err)
	}
	rem.err = nil
	rem.outcome = model.OutcomeSucceeded
	if n, _ := s.RunOnce(context.Background()); n != 1 {
		t.Fatalf("retry reminded = %d, want 1", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := newSweeper(t, &fakeReminder{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
