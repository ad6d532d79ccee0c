// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
)

// EventLister lists stored events.
type EventLister interface {
	List(ctx context.Context, f repository.ListFilter) ([]*model.Event, error)
}

// Reminder sends the reminder for one event.
type Reminder interface {
	SendReminder(ctx context.Context, teamID, eventID string) (model.Outcome, error)
}

// ReminderSweeper reminds attendees of active events starting the next day.
// Each event is reminded at most once per process per start date.
type ReminderSweeper struct {
	events   EventLister
	reminder Reminder
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]bool
}

// NewReminderSweeper returns a sweeper.
func NewReminderSweeper(events EventLister, reminder Reminder, logger *slog.Logger) *ReminderSweeper {
	return &ReminderSweeper{
		events:   events,
		reminder: reminder,
		logger:   logger,
		now:      time.Now,
		sent:     make(map[string]bool),
	}
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *ReminderSweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "reminder sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce reminds every due event and returns how many were reminded.
func (s *ReminderSweeper) RunOnce(ctx context.Context) (int, error) {
	events, err := s.events.List(ctx, repository.ListFilter{Status: model.StatusActive})
	if err != nil {
		return 0, err
	}

	tomorrow := day(s.now()).AddDate(0, 0, 1)
	reminded := 0
	for _, e := range events {
		if !day(e.StartDate).Equal(tomorrow) {
			continue
		}
		key := e.TeamID + "/" + e.EventID + "/" + tomorrow.Format(time.DateOnly)
		if s.alreadySent(key) {
			continue
		}

		outcome, err := s.reminder.SendReminder(ctx, e.TeamID, e.EventID)
		if err != nil {
			s.logger.WarnContext(ctx, "reminder failed",
				"team_id", e.TeamID, "event_id", e.EventID, "error", err)
			continue
		}
		if outcome != model.OutcomeSucceeded {
			continue
		}
		s.markSent(key)
		reminded++
	}
	if reminded > 0 {
		s.logger.InfoContext(ctx, "reminders sent", "events", reminded)
	}
	return reminded, nil
}

func (s *ReminderSweeper) alreadySent(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[key]
}

func (s *ReminderSweeper) markSent(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[key] = true
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
