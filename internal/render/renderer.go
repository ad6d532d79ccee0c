// Package render turns events into notification copy.
package render

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

const (
	dateLayout = "Mon 02 Jan 2006"
	timeLayout = "15:04"
)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Renderer renders notification messages for events.
type Renderer struct {
	loc     Localizer
	baseURL string
}

// New returns an English renderer. Links in team cards point at baseURL.
func New(baseURL string) *Renderer {
	return NewWithLocalizer(message.NewPrinter(language.English), baseURL)
}

// NewWithLocalizer returns a renderer using loc for its copy.
func NewWithLocalizer(loc Localizer, baseURL string) *Renderer {
	return &Renderer{loc: loc, baseURL: strings.TrimRight(baseURL, "/")}
}

// TeamCard is posted to the organizing team's channel and refreshed as
// registrations change.
func (r *Renderer) TeamCard(e *model.Event) model.Message {
	footer := r.loc.Sprintf("event.team_card.open", r.eventURL(e))
	if e.IsRegistrationClosed {
		footer = r.loc.Sprintf("event.team_card.closed")
	}
	return model.Message{
		Subject: r.loc.Sprintf("event.team_card.subject", e.Name),
		Body: r.loc.Sprintf("event.team_card.body",
			e.Name, e.Description, schedule(e), r.where(e),
			e.RegisteredAttendeesCount, e.MaximumNumberOfParticipants, footer),
	}
}

// AutoRegistered tells a mandatory attendee they hold a seat.
func (r *Renderer) AutoRegistered(e *model.Event) model.Message {
	return model.Message{
		Subject: r.loc.Sprintf("event.auto_registered.subject", e.Name),
		Body:    r.loc.Sprintf("event.auto_registered.body", e.Name, schedule(e), r.where(e)),
	}
}

// Updated tells attendees the event details changed.
func (r *Renderer) Updated(e *model.Event) model.Message {
	return model.Message{
		Subject: r.loc.Sprintf("event.updated.subject", e.Name),
		Body:    r.loc.Sprintf("event.updated.body", e.Name, schedule(e), r.where(e)),
	}
}

// Cancelled tells attendees the event will not take place.
func (r *Renderer) Cancelled(e *model.Event) model.Message {
	return model.Message{
		Subject: r.loc.Sprintf("event.cancelled.subject", e.Name),
		Body:    r.loc.Sprintf("event.cancelled.body", e.Name, schedule(e)),
	}
}

// Reminder is sent shortly before the event starts.
func (r *Renderer) Reminder(e *model.Event) model.Message {
	return model.Message{
		Subject: r.loc.Sprintf("event.reminder.subject", e.Name),
		Body:    r.loc.Sprintf("event.reminder.body", e.Name, schedule(e), r.where(e)),
	}
}

func (r *Renderer) where(e *model.Event) string {
	if e.Type == model.EventTypeInPerson && e.Venue != "" {
		return e.Venue
	}
	if e.MeetingLink != "" {
		return e.MeetingLink
	}
	return r.loc.Sprintf("event.venue.online")
}

func (r *Renderer) eventURL(e *model.Event) string {
	return r.baseURL + "/teams/" + e.TeamID + "/events/" + e.EventID
}

func schedule(e *model.Event) string {
	if e.StartDate.IsZero() {
		return ""
	}
	s := e.StartDate.Format(dateLayout)
	if !e.EndDate.IsZero() && !sameDay(e.StartDate, e.EndDate) {
		s += " - " + e.EndDate.Format(dateLayout)
	}
	if !e.StartTime.IsZero() && !e.EndTime.IsZero() {
		s += ", " + e.StartTime.UTC().Format(timeLayout) + "-" + e.EndTime.UTC().Format(timeLayout) + " UTC"
	}
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
