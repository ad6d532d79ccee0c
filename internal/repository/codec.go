package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// eventRecord is the storage form of an event: attendee sets are
// semicolon-delimited strings and the member selection is JSON.
type eventRecord struct {
	TeamID                      string
	EventID                     string
	Name                        string
	Description                 string
	Category                    string
	Type                        string
	Venue                       string
	MeetingLink                 string
	PhotoURL                    string
	Status                      string
	Audience                    string
	IsAutoRegistration          bool
	SelectedMembers             []byte
	MandatoryAttendees          string
	OptionalAttendees           string
	RegisteredAttendees         string
	AutoRegisteredAttendees     string
	RegisteredAttendeesCount    int
	MaximumNumberOfParticipants int
	StartDate                   *time.Time
	StartTime                   *time.Time
	EndDate                     *time.Time
	EndTime                     *time.Time
	NumberOfOccurrences         int
	GraphEventID                string
	IsRegistrationClosed        bool
	RegistrationClosedBy        string
	RegistrationClosedOn        *time.Time
	IsRemoved                   bool
	TeamCardActivityID          string
	CreatedBy                   string
	CreatedOn                   time.Time
	UpdatedBy                   string
	UpdatedOn                   time.Time
	Version                     int64
}

// args returns the column values in eventColumns order.
func (r *eventRecord) args() []any {
	return []any{
		r.TeamID, r.EventID, r.Name, r.Description, r.Category, r.Type, r.Venue, r.MeetingLink, r.PhotoURL,
		r.Status, r.Audience, r.IsAutoRegistration, r.SelectedMembers,
		r.MandatoryAttendees, r.OptionalAttendees, r.RegisteredAttendees, r.AutoRegisteredAttendees,
		r.RegisteredAttendeesCount, r.MaximumNumberOfParticipants,
		r.StartDate, r.StartTime, r.EndDate, r.EndTime, r.NumberOfOccurrences,
		r.GraphEventID, r.IsRegistrationClosed, r.RegistrationClosedBy, r.RegistrationClosedOn,
		r.IsRemoved, r.TeamCardActivityID, r.CreatedBy, r.CreatedOn, r.UpdatedBy, r.UpdatedOn, r.Version,
	}
}

// dest returns scan targets in eventColumns order.
func (r *eventRecord) dest() []any {
	return []any{
		&r.TeamID, &r.EventID, &r.Name, &r.Description, &r.Category, &r.Type, &r.Venue, &r.MeetingLink, &r.PhotoURL,
		&r.Status, &r.Audience, &r.IsAutoRegistration, &r.SelectedMembers,
		&r.MandatoryAttendees, &r.OptionalAttendees, &r.RegisteredAttendees, &r.AutoRegisteredAttendees,
		&r.RegisteredAttendeesCount, &r.MaximumNumberOfParticipants,
		&r.StartDate, &r.StartTime, &r.EndDate, &r.EndTime, &r.NumberOfOccurrences,
		&r.GraphEventID, &r.IsRegistrationClosed, &r.RegistrationClosedBy, &r.RegistrationClosedOn,
		&r.IsRemoved, &r.TeamCardActivityID, &r.CreatedBy, &r.CreatedOn, &r.UpdatedBy, &r.UpdatedOn, &r.Version,
	}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var rec eventRecord
	if err := row.Scan(rec.dest()...); err != nil {
		return nil, err
	}
	return rec.toEvent()
}

func toRecord(e *model.Event) (*eventRecord, error) {
	members := e.SelectedMembers
	if members == nil {
		members = []model.SelectedMember{}
	}
	selected, err := json.Marshal(members)
	if err != nil {
		return nil, fmt.Errorf("encode selected members: %w", err)
	}
	return &eventRecord{
		TeamID:                      e.TeamID,
		EventID:                     e.EventID,
		Name:                        e.Name,
		Description:                 e.Description,
		Category:                    e.Category,
		Type:                        string(e.Type),
		Venue:                       e.Venue,
		MeetingLink:                 e.MeetingLink,
		PhotoURL:                    e.PhotoURL,
		Status:                      string(e.Status),
		Audience:                    string(e.Audience),
		IsAutoRegistration:          e.IsAutoRegistration,
		SelectedMembers:             selected,
		MandatoryAttendees:          e.MandatoryAttendees.String(),
		OptionalAttendees:           e.OptionalAttendees.String(),
		RegisteredAttendees:         e.RegisteredAttendees.String(),
		AutoRegisteredAttendees:     e.AutoRegisteredAttendees.String(),
		RegisteredAttendeesCount:    e.RegisteredAttendeesCount,
		MaximumNumberOfParticipants: e.MaximumNumberOfParticipants,
		StartDate:                   optionalTime(e.StartDate),
		StartTime:                   optionalTime(e.StartTime),
		EndDate:                     optionalTime(e.EndDate),
		EndTime:                     optionalTime(e.EndTime),
		NumberOfOccurrences:         e.NumberOfOccurrences,
		GraphEventID:                e.GraphEventID,
		IsRegistrationClosed:        e.IsRegistrationClosed,
		RegistrationClosedBy:        e.RegistrationClosedBy,
		RegistrationClosedOn:        e.RegistrationClosedOn,
		IsRemoved:                   e.IsRemoved,
		TeamCardActivityID:          e.TeamCardActivityID,
		CreatedBy:                   e.CreatedBy,
		CreatedOn:                   e.CreatedOn.UTC(),
		UpdatedBy:                   e.UpdatedBy,
		UpdatedOn:                   e.UpdatedOn.UTC(),
		Version:                     e.Version,
	}, nil
}

func (r *eventRecord) toEvent() (*model.Event, error) {
	var members []model.SelectedMember
	if len(r.SelectedMembers) > 0 {
		if err := json.Unmarshal(r.SelectedMembers, &members); err != nil {
			return nil, fmt.Errorf("decode selected members: %w", err)
		}
	}
	if len(members) == 0 {
		members = nil
	}
	return &model.Event{
		TeamID:                      r.TeamID,
		EventID:                     r.EventID,
		Name:                        r.Name,
		Description:                 r.Description,
		Category:                    r.Category,
		Type:                        model.EventType(r.Type),
		Venue:                       r.Venue,
		MeetingLink:                 r.MeetingLink,
		PhotoURL:                    r.PhotoURL,
		Status:                      model.Status(r.Status),
		Audience:                    model.Audience(r.Audience),
		IsAutoRegistration:          r.IsAutoRegistration,
		SelectedMembers:             members,
		MandatoryAttendees:          model.ParseUserSet(r.MandatoryAttendees),
		OptionalAttendees:           model.ParseUserSet(r.OptionalAttendees),
		RegisteredAttendees:         model.ParseUserSet(r.RegisteredAttendees),
		AutoRegisteredAttendees:     model.ParseUserSet(r.AutoRegisteredAttendees),
		RegisteredAttendeesCount:    r.RegisteredAttendeesCount,
		MaximumNumberOfParticipants: r.MaximumNumberOfParticipants,
		StartDate:                   valueOf(r.StartDate),
		StartTime:                   valueOf(r.StartTime),
		EndDate:                     valueOf(r.EndDate),
		EndTime:                     valueOf(r.EndTime),
		NumberOfOccurrences:         r.NumberOfOccurrences,
		GraphEventID:                r.GraphEventID,
		IsRegistrationClosed:        r.IsRegistrationClosed,
		RegistrationClosedBy:        r.RegistrationClosedBy,
		RegistrationClosedOn:        r.RegistrationClosedOn,
		IsRemoved:                   r.IsRemoved,
		TeamCardActivityID:          r.TeamCardActivityID,
		CreatedBy:                   r.CreatedBy,
		CreatedOn:                   r.CreatedOn.UTC(),
		UpdatedBy:                   r.UpdatedBy,
		UpdatedOn:                   r.UpdatedOn.UTC(),
		Version:                     r.Version,
	}, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func valueOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
