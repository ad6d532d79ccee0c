package calendar

import (
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

func TestBuildTimedSeries(t *testing.T) {
	t.Parallel()

	e := &model.Event{
		TeamID:             "team-1",
		EventID:            "ev-1",
		Name:               "Go fundamentals",
		Type:               model.EventTypeInPerson,
		Venue:              "Room 4",
		StartDate:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime:          time.Date(1, 1, 1, 9, 30, 0, 0, time.UTC),
		EndTime:            time.Date(1, 1, 1, 12, 0, 0, 0, time.UTC),
		MandatoryAttendees: model.NewUserSet("alice"),
	}
	attendees := []model.UserProfile{
		{ID: "alice", DisplayName: "Alice", Email: "alice@example.com"},
		{ID: "bob", DisplayName: "Bob", Email: "bob@example.com"},
		{ID: "ghost"},
	}

	ev := Build(e, attendees, "Europe/Berlin")

	if ev.Summary != "Go fundamentals" || ev.Location != "Room 4" {
		t.Fatalf("summary/location = %q/%q", ev.Summary, ev.Location)
	}
	if ev.Start.DateTime != "2026-03-10T09:30:00Z" || ev.End.DateTime != "2026-03-10T12:00:00Z" {
		t.Fatalf("start/end = %q/%q", ev.Start.DateTime, ev.End.DateTime)
	}
	if ev.Start.TimeZone != "Europe/Berlin" {
		t.Fatalf("time zone = %q", ev.Start.TimeZone)
	}
	if len(ev.Recurrence) != 1 || ev.Recurrence[0] != "RRULE:FREQ=DAILY;COUNT=3" {
		t.Fatalf("recurrence = %v", ev.Recurrence)
	}
	if len(ev.Attendees) != 2 {
		t.Fatalf("attendees = %d, want 2", len(ev.Attendees))
	}
	if ev.Attendees[0].Optional || !ev.Attendees[1].Optional {
		t.Fatal("expected only mandatory attendees to be required")
	}
	if got := ev.ExtendedProperties.Private[propEventID]; got != "ev-1" {
		t.Fatalf("event id property = %q", got)
	}
}

func TestBuildAllDaySingleOccurrence(t *testing.T) {
	t.Parallel()

	e := &model.Event{
		Name:        "Webinar",
		Type:        model.EventTypeLiveEvent,
		MeetingLink: "https://meet.example.com/x",
		StartDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	ev := Build(e, nil, "UTC")

	if ev.Start.Date != "2026-03-10" || ev.End.Date != "2026-03-11" {
		t.Fatalf("start/end = %q/%q", ev.Start.Date, ev.End.Date)
	}
	if ev.Recurrence != nil {
		t.Fatalf("recurrence = %v, want none", ev.Recurrence)
	}
	if ev.Location != "https://meet.example.com/x" {
		t.Fatalf("location = %q", ev.Location)
	}
}
