// Package calendar mirrors training events into Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

const (
	propTeamID      = "lnd_team_id"
	propEventID     = "lnd_event_id"
	propCancelledBy = "lnd_cancelled_by"

	// sendUpdates makes Google e-mail invitations and changes to attendees.
	sendUpdates = "all"
)

// Directory resolves attendee ids to addresses the calendar can invite.
type Directory interface {
	Users(ctx context.Context, ids []string) ([]model.UserProfile, error)
}

// Config selects the calendar events are written to.
type Config struct {
	CredentialsFile string
	CalendarID      string
	TimeZone        string
}

// Gateway writes events to a single Google calendar.
type Gateway struct {
	events     *gcal.EventsService
	calendarID string
	timeZone   string
	users      Directory
	logger     *slog.Logger
}

// New connects to the Calendar API using a service account credentials file.
func New(ctx context.Context, cfg Config, users Directory, logger *slog.Logger) (*Gateway, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}
	tz := cfg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Gateway{
		events:     svc.Events,
		calendarID: calendarID,
		timeZone:   tz,
		users:      users,
		logger:     logger,
	}, nil
}

// CreateEvent inserts e and invites its attendees.
func (g *Gateway) CreateEvent(ctx context.Context, e *model.Event) (*model.CalendarEventRef, error) {
	body, err := g.build(ctx, e)
	if err != nil {
		return nil, err
	}
	created, err := g.events.Insert(g.calendarID, body).SendUpdates(sendUpdates).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	g.logger.InfoContext(ctx, "calendar event created",
		"team_id", e.TeamID, "event_id", e.EventID, "calendar_event_id", created.Id)
	return &model.CalendarEventRef{ID: created.Id}, nil
}

// UpdateEvent replaces the calendar copy of e, including its attendee list.
func (g *Gateway) UpdateEvent(ctx context.Context, e *model.Event) (*model.CalendarEventRef, error) {
	if e.GraphEventID == "" {
		return nil, fmt.Errorf("event %s has no calendar entry", e.EventID)
	}
	body, err := g.build(ctx, e)
	if err != nil {
		return nil, err
	}
	updated, err := g.events.Update(g.calendarID, e.GraphEventID, body).SendUpdates(sendUpdates).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("update calendar event %s: %w", e.GraphEventID, err)
	}
	return &model.CalendarEventRef{ID: updated.Id}, nil
}

// CancelEvent marks the calendar entry cancelled and tells attendees why.
func (g *Gateway) CancelEvent(ctx context.Context, calendarEventID, organizerID, comment string) error {
	patch := &gcal.Event{
		Status:      "cancelled",
		Description: comment,
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{propCancelledBy: organizerID},
		},
	}
	if _, err := g.events.Patch(g.calendarID, calendarEventID, patch).SendUpdates(sendUpdates).Context(ctx).Do(); err != nil {
		return fmt.Errorf("cancel calendar event %s: %w", calendarEventID, err)
	}
	return nil
}

func (g *Gateway) build(ctx context.Context, e *model.Event) (*gcal.Event, error) {
	attendees := e.Attendees()
	var profiles []model.UserProfile
	if attendees.Len() > 0 {
		var err error
		profiles, err = g.users.Users(ctx, attendees.IDs())
		if err != nil {
			return nil, fmt.Errorf("resolve calendar attendees: %w", err)
		}
	}
	return Build(e, profiles, g.timeZone), nil
}

// Build maps e onto a calendar event. A multi-day event becomes a daily
// series with one instance per occurrence; an event without times is
// all-day.
func Build(e *model.Event, attendees []model.UserProfile, timeZone string) *gcal.Event {
	ev := &gcal.Event{
		Summary:     e.Name,
		Description: e.Description,
		Location:    location(e),
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{propTeamID: e.TeamID, propEventID: e.EventID},
		},
		GuestsCanInviteOthers: boolPtr(false),
	}

	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		ev.Start = &gcal.EventDateTime{Date: e.StartDate.Format(time.DateOnly), TimeZone: timeZone}
		ev.End = &gcal.EventDateTime{Date: e.StartDate.AddDate(0, 0, 1).Format(time.DateOnly), TimeZone: timeZone}
	} else {
		ev.Start = &gcal.EventDateTime{DateTime: at(e.StartDate, e.StartTime).Format(time.RFC3339), TimeZone: timeZone}
		ev.End = &gcal.EventDateTime{DateTime: at(e.StartDate, e.EndTime).Format(time.RFC3339), TimeZone: timeZone}
	}
	if n := e.Occurrences(); n > 1 {
		ev.Recurrence = []string{fmt.Sprintf("RRULE:FREQ=DAILY;COUNT=%d", n)}
	}

	for _, p := range attendees {
		if p.Email == "" {
			continue
		}
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{
			Email:       p.Email,
			DisplayName: p.DisplayName,
			Optional:    !e.MandatoryAttendees.Has(p.ID),
		})
	}
	return ev
}

func location(e *model.Event) string {
	if e.Type == model.EventTypeInPerson {
		return e.Venue
	}
	return e.MeetingLink
}

// at combines the calendar date of day with the clock time of clock.
func at(day, clock time.Time) time.Time {
	y, m, d := day.UTC().Date()
	c := clock.UTC()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, time.UTC)
}

func boolPtr(b bool) *bool { return &b }
