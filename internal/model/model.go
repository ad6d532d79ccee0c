// Package model defines the core domain types for the training events system.
package model

import (
	"math"
	"time"
)

// Status is the lifecycle state of an event.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether an event in status s may move to next.
// Cancelled and Completed are terminal, and nothing returns to Draft once
// the event has been published.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusActive
	case StatusActive:
		return next.Valid() && next != StatusDraft
	default:
		return false
	}
}

// Audience controls who may register for an event.
type Audience string

const (
	AudiencePublic  Audience = "public"
	AudiencePrivate Audience = "private"
)

// EventType describes how the training is delivered.
type EventType string

const (
	EventTypeInPerson  EventType = "in_person"
	EventTypeTeams     EventType = "teams"
	EventTypeLiveEvent EventType = "live_event"
)

// SelectedMember is one entry of the organizer's user/group picker,
// kept so the selection can be re-resolved on every edit.
type SelectedMember struct {
	ID          string `json:"id"`
	IsGroup     bool   `json:"is_group"`
	IsMandatory bool   `json:"is_mandatory"`
}

// Event is a training event owned by an L&D team.
type Event struct {
	TeamID  string `json:"team_id"`
	EventID string `json:"event_id"`

	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Type        EventType `json:"type"`
	Venue       string    `json:"venue,omitempty"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`

	Status   Status   `json:"status"`
	Audience Audience `json:"audience"`

	IsAutoRegistration      bool             `json:"is_auto_registration"`
	SelectedMembers         []SelectedMember `json:"selected_members,omitempty"`
	MandatoryAttendees      UserSet          `json:"mandatory_attendees"`
	OptionalAttendees       UserSet          `json:"optional_attendees"`
	RegisteredAttendees     UserSet          `json:"registered_attendees"`
	AutoRegisteredAttendees UserSet          `json:"auto_registered_attendees"`

	RegisteredAttendeesCount    int `json:"registered_attendees_count"`
	MaximumNumberOfParticipants int `json:"maximum_number_of_participants"`

	StartDate           time.Time `json:"start_date"`
	StartTime           time.Time `json:"start_time"`
	EndDate             time.Time `json:"end_date"`
	EndTime             time.Time `json:"end_time"`
	NumberOfOccurrences int       `json:"number_of_occurrences"`

	GraphEventID         string     `json:"graph_event_id,omitempty"`
	IsRegistrationClosed bool       `json:"is_registration_closed"`
	RegistrationClosedBy string     `json:"registration_closed_by,omitempty"`
	RegistrationClosedOn *time.Time `json:"registration_closed_on,omitempty"`
	IsRemoved            bool       `json:"is_removed"`
	TeamCardActivityID   string     `json:"team_card_activity_id,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	UpdatedOn time.Time `json:"updated_on"`

	// Version is the optimistic-concurrency token of the stored row.
	Version int64 `json:"version"`
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	c := *e
	c.SelectedMembers = append([]SelectedMember(nil), e.SelectedMembers...)
	c.MandatoryAttendees = e.MandatoryAttendees.Clone()
	c.OptionalAttendees = e.OptionalAttendees.Clone()
	c.RegisteredAttendees = e.RegisteredAttendees.Clone()
	c.AutoRegisteredAttendees = e.AutoRegisteredAttendees.Clone()
	if e.RegistrationClosedOn != nil {
		t := *e.RegistrationClosedOn
		c.RegistrationClosedOn = &t
	}
	return &c
}

// Occurrences returns the number of days the event spans, inclusive.
func (e *Event) Occurrences() int {
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return 1
	}
	days := e.EndDate.Sub(e.StartDate).Hours() / 24
	return int(math.Floor(days)) + 1
}

// HasEnded reports whether the event's end date lies before the date of now.
func (e *Event) HasEnded(now time.Time) bool {
	if e.EndDate.IsZero() {
		return false
	}
	return dateOf(e.EndDate).Before(dateOf(now))
}

// EffectiveStatus interprets an Active event whose end date has passed as
// Completed. Completion is never stored.
func (e *Event) EffectiveStatus(now time.Time) Status {
	if e.Status == StatusActive && e.HasEnded(now) {
		return StatusCompleted
	}
	return e.Status
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.RegisteredAttendeesCount >= e.MaximumNumberOfParticipants
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	if r := e.MaximumNumberOfParticipants - e.RegisteredAttendeesCount; r > 0 {
		return r
	}
	return 0
}

// IsEligible reports whether userID may register. Public events accept
// everybody; private events only their mandatory and optional attendees.
func (e *Event) IsEligible(userID string) bool {
	if e.Audience != AudiencePrivate {
		return true
	}
	return e.MandatoryAttendees.Has(userID) || e.OptionalAttendees.Has(userID)
}

// IsRegistered reports whether userID holds a seat in either bucket.
func (e *Event) IsRegistered(userID string) bool {
	return e.RegisteredAttendees.Has(userID) || e.AutoRegisteredAttendees.Has(userID)
}

// Attendees returns every user holding a seat.
func (e *Event) Attendees() UserSet {
	return e.RegisteredAttendees.Union(e.AutoRegisteredAttendees)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UserEvent is an event annotated for one viewer.
type UserEvent struct {
	*Event
	IsMandatoryForUser  bool `json:"is_mandatory_for_user"`
	IsRegisteredForUser bool `json:"is_registered_for_user"`
	CanUserRegister     bool `json:"can_user_register"`
}

// UserProfile is a directory entry for an employee.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// CalendarEventRef identifies an event in the calendar provider.
type CalendarEventRef struct {
	ID string
}

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// EventSummary is the projection kept in the search index.
type EventSummary struct {
	TeamID                      string    `json:"team_id"`
	EventID                     string    `json:"event_id"`
	Name                        string    `json:"name"`
	Category                    string    `json:"category"`
	Status                      Status    `json:"status"`
	Audience                    Audience  `json:"audience"`
	StartDate                   time.Time `json:"start_date"`
	EndDate                     time.Time `json:"end_date"`
	RegisteredAttendeesCount    int       `json:"registered_attendees_count"`
	MaximumNumberOfParticipants int       `json:"maximum_number_of_participants"`
	IsRegistrationClosed        bool      `json:"is_registration_closed"`
}

// AttendeeTable is the pivoted export of an event's registrants: metadata
// appears on the first row only, one attendee per row.
type AttendeeTable struct {
	Header []string
	Rows   [][]string
}

// EventRequest is the payload for creating or editing an event.
type EventRequest struct {
	EventID                     string           `json:"event_id"`
	Name                        string           `json:"name"`
	Description                 string           `json:"description"`
	Category                    string           `json:"category"`
	Type                        EventType        `json:"type"`
	Venue                       string           `json:"venue"`
	MeetingLink                 string           `json:"meeting_link"`
	PhotoURL                    string           `json:"photo_url"`
	Audience                    Audience         `json:"audience"`
	IsAutoRegistration          bool             `json:"is_auto_registration"`
	SelectedMembers             []SelectedMember `json:"selected_members"`
	MaximumNumberOfParticipants int              `json:"maximum_number_of_participants"`
	StartDate                   time.Time        `json:"start_date"`
	StartTime                   time.Time        `json:"start_time"`
	EndDate                     time.Time        `json:"end_date"`
	EndTime                     time.Time        `json:"end_time"`
}

// ToEvent builds an unsaved event for teamID from the request.
func (r EventRequest) ToEvent(teamID string) *Event {
	return &Event{
		TeamID:                      teamID,
		EventID:                     r.EventID,
		Name:                        r.Name,
		Description:                 r.Description,
		Category:                    r.Category,
		Type:                        r.Type,
		Venue:                       r.Venue,
		MeetingLink:                 r.MeetingLink,
		PhotoURL:                    r.PhotoURL,
		Audience:                    r.Audience,
		IsAutoRegistration:          r.IsAutoRegistration,
		SelectedMembers:             r.SelectedMembers,
		MaximumNumberOfParticipants: r.MaximumNumberOfParticipants,
		StartDate:                   r.StartDate,
		StartTime:                   r.StartTime,
		EndDate:                     r.EndDate,
		EndTime:                     r.EndTime,
	}
}

// StatusRequest is the payload for changing an event's status.
type StatusRequest struct {
	Status Status `json:"status"`
}

// ResultResponse reports the boolean outcome of a command.
type ResultResponse struct {
	Result bool `json:"result"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
