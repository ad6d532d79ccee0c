package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
)

const (
	cancelledByTeam    = "This training has been cancelled by the organizing team."
	cancelledByActor   = "This training has been cancelled by %s."
	withdrawnOnFailure = "This training could not be published."
)

// EventService owns the lifecycle of events: drafts, publishing, edits,
// closing registrations and status changes.
type EventService struct {
	*core
}

// NewEventService constructs an EventService with its collaborators.
func NewEventService(c Collaborators, opts ...Option) *EventService {
	return &EventService{core: newCore(c, opts)}
}

// CreateDraft stores e as a new draft. A missing event id is generated.
// Drafts never reach the calendar.
func (s *EventService) CreateDraft(ctx context.Context, e *model.Event, actorID string) (*model.Event, error) {
	ctx, span := s.startSpan(ctx, "EventService.CreateDraft", e.TeamID, e.EventID)
	defer span.End()

	if strings.TrimSpace(e.TeamID) == "" {
		return nil, invalid("team id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return nil, invalid("event name is required")
	}
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	} else if _, err := s.Store.Get(ctx, e.TeamID, e.EventID); err == nil {
		return nil, invalid("event %s already exists", e.EventID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load event: %w", err)
	}

	now := s.clock()
	draft := e.Clone()
	draft.Status = model.StatusDraft
	if draft.Audience == "" {
		draft.Audience = model.AudiencePublic
	}
	draft.NumberOfOccurrences = draft.Occurrences()
	draft.GraphEventID = ""
	draft.IsRemoved = false
	draft.CreatedBy = actorID
	draft.CreatedOn = now
	draft.UpdatedBy = actorID
	draft.UpdatedOn = now

	if err := s.Store.InsertOrReplace(ctx, draft); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}
	s.refreshIndex(ctx, draft)
	return draft, nil
}

// UpdateDraft copies the editable fields of e onto the stored draft.
func (s *EventService) UpdateDraft(ctx context.Context, e *model.Event, actorID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.UpdateDraft", e.TeamID, e.EventID)
	defer span.End()

	if err := validateKey(e.TeamID, e.EventID); err != nil {
		return model.OutcomeDeclined, err
	}
	if strings.TrimSpace(e.Name) == "" {
		return model.OutcomeDeclined, invalid("event name is required")
	}

	existing, err := s.loadLive(ctx, e.TeamID, e.EventID)
	if err != nil {
		return model.OutcomeDeclined, err
	}
	if existing == nil {
		return model.OutcomeNotFound, nil
	}
	if existing.Status != model.StatusDraft {
		return model.OutcomeDeclined, nil
	}

	previous := existing.Audience
	applyEditable(existing, e)
	if existing.Audience != model.AudiencePrivate && previous == model.AudiencePrivate {
		existing.ClearAttendees()
	}
	existing.NumberOfOccurrences = existing.Occurrences()
	existing.UpdatedBy = actorID
	existing.UpdatedOn = s.clock()

	if err := s.Store.InsertOrReplace(ctx, existing); err != nil {
		return model.OutcomeDeclined, fmt.Errorf("store draft: %w", err)
	}
	s.refreshIndex(ctx, existing)
	return model.OutcomeSucceeded, nil
}

// Publish makes an event Active. An existing draft with the same id is
// promoted; otherwise a new event is created. The calendar entry and the
// team card are created before the event is stored as Active, so a failure
// in either leaves nothing Active behind.
func (s *EventService) Publish(ctx context.Context, e *model.Event, actorID string) (*model.Event, model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.Publish", e.TeamID, e.EventID)
	defer span.End()

	if err := validateForPublish(e); err != nil {
		return nil, model.OutcomeDeclined, err
	}

	now := s.clock()
	var target *model.Event
	previous := e.Audience
	if e.EventID != "" {
		existing, err := s.Store.Get(ctx, e.TeamID, e.EventID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return nil, model.OutcomeDeclined, fmt.Errorf("load event: %w", err)
		case existing.IsRemoved:
			return nil, model.OutcomeNotFound, nil
		case existing.Status != model.StatusDraft:
			return nil, model.OutcomeDeclined, nil
		default:
			previous = existing.Audience
			applyEditable(existing, e)
			target = existing
		}
	}
	if target == nil {
		target = e.Clone()
		target.EventID = uuid.New().String()
		target.CreatedBy = actorID
		target.CreatedOn = now
		target.GraphEventID = ""
		target.TeamCardActivityID = ""
		target.IsRemoved = false
		target.IsRegistrationClosed = false
		target.RegisteredAttendees = model.UserSet{}
		target.AutoRegisteredAttendees = model.UserSet{}
		if target.Audience == "" {
			target.Audience = model.AudiencePublic
		}
	}
	target.UpdatedBy = actorID
	target.UpdatedOn = now

	return s.publish(ctx, target, previous)
}

func (s *EventService) publish(ctx context.Context, e *model.Event, previous model.Audience) (*model.Event, model.Outcome, error) {
	e.NumberOfOccurrences = e.Occurrences()
	autoRegistered, err := s.applyAudience(ctx, e, previous)
	if err != nil {
		return nil, model.OutcomeDeclined, err
	}
	if e.RegisteredAttendeesCount > e.MaximumNumberOfParticipants {
		s.logger.InfoContext(ctx, "publish declined: attendees exceed capacity",
			"team_id", e.TeamID, "event_id", e.EventID,
			"attendees", e.RegisteredAttendeesCount, "capacity", e.MaximumNumberOfParticipants)
		return nil, model.OutcomeDeclined, nil
	}

	ref, err := s.Calendar.CreateEvent(ctx, e)
	if err != nil || ref == nil || ref.ID == "" {
		s.logger.ErrorContext(ctx, "calendar event creation failed",
			"team_id", e.TeamID, "event_id", e.EventID, "error", err)
		return nil, model.OutcomeDeclined, nil
	}
	e.GraphEventID = ref.ID

	cardID, err := s.Notifier.SendToTeam(ctx, e.TeamID, s.render.TeamCard(e), e.TeamCardActivityID)
	if err != nil {
		s.logger.ErrorContext(ctx, "team card post failed",
			"team_id", e.TeamID, "event_id", e.EventID, "error", err)
		if err := s.Calendar.CancelEvent(ctx, ref.ID, e.CreatedBy, withdrawnOnFailure); err != nil {
			s.logger.ErrorContext(ctx, "orphaned calendar event not withdrawn",
				"team_id", e.TeamID, "event_id", e.EventID, "calendar_event_id", ref.ID, "error", err)
		}
		return nil, model.OutcomeDeclined, nil
	}
	e.TeamCardActivityID = cardID
	e.Status = model.StatusActive

	if err := s.Store.InsertOrReplace(ctx, e); err != nil {
		return nil, model.OutcomeDeclined, fmt.Errorf("store published event: %w", err)
	}

	s.notifyUsersBestEffort(ctx, e, autoRegistered, s.render.AutoRegistered(e), "auto-registration")
	s.refreshIndex(ctx, e)
	return e, model.OutcomeSucceeded, nil
}

// UpdateActive edits a published event. The calendar is updated before the
// store; a calendar failure leaves the stored event untouched.
func (s *EventService) UpdateActive(ctx context.Context, e *model.Event, actorID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.UpdateActive", e.TeamID, e.EventID)
	defer span.End()

	if err := validateKey(e.TeamID, e.EventID); err != nil {
		return model.OutcomeDeclined, err
	}
	if err := validateForPublish(e); err != nil {
		return model.OutcomeDeclined, err
	}

	outcome := model.OutcomeDeclined
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		current, err := s.loadLive(ctx, e.TeamID, e.EventID)
		if err != nil {
			return err
		}
		if current == nil {
			outcome = model.OutcomeNotFound
			return nil
		}
		if current.GraphEventID == "" || current.EffectiveStatus(s.clock()) != model.StatusActive {
			outcome = model.OutcomeDeclined
			return nil
		}

		previous := current.Audience
		applyEditable(current, e)
		autoRegistered, err := s.applyAudience(ctx, current, previous)
		if err != nil {
			return err
		}
		if current.RegisteredAttendeesCount > current.MaximumNumberOfParticipants {
			outcome = model.OutcomeDeclined
			return nil
		}
		current.NumberOfOccurrences = current.Occurrences()

		if ref, err := s.Calendar.UpdateEvent(ctx, current); err != nil || ref == nil {
			s.logger.ErrorContext(ctx, "calendar event update failed",
				"team_id", current.TeamID, "event_id", current.EventID, "error", err)
			outcome = model.OutcomeDeclined
			return nil
		}

		current.UpdatedBy = actorID
		current.UpdatedOn = s.clock()
		if err := s.Store.Replace(ctx, current); err != nil {
			return err
		}

		s.refreshTeamCard(ctx, current)
		s.notifyUsersBestEffort(ctx, current, current.Attendees().Minus(autoRegistered), s.render.Updated(current), "update")
		s.notifyUsersBestEffort(ctx, current, autoRegistered, s.render.AutoRegistered(current), "auto-registration")
		s.refreshIndex(ctx, current)
		outcome = model.OutcomeSucceeded
		return nil
	})
	if err != nil {
		return model.OutcomeDeclined, fmt.Errorf("update event: %w", err)
	}
	return outcome, nil
}

// DeleteDraft soft-deletes a draft so the index drops it.
func (s *EventService) DeleteDraft(ctx context.Context, teamID, eventID, actorID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.DeleteDraft", teamID, eventID)
	defer span.End()

	if err := validateKey(teamID, eventID); err != nil {
		return model.OutcomeDeclined, err
	}

	outcome := model.OutcomeDeclined
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		e, err := s.loadLive(ctx, teamID, eventID)
		if err != nil {
			return err
		}
		if e == nil {
			outcome = model.OutcomeNotFound
			return nil
		}
		if e.Status != model.StatusDraft {
			outcome = model.OutcomeDeclined
			return nil
		}

		e.IsRemoved = true
		e.UpdatedBy = actorID
		e.UpdatedOn = s.clock()
		if err := s.Store.Replace(ctx, e); err != nil {
			return err
		}
		s.refreshIndex(ctx, e)
		outcome = model.OutcomeSucceeded
		return nil
	})
	if err != nil {
		return model.OutcomeDeclined, fmt.Errorf("delete draft: %w", err)
	}
	return outcome, nil
}

// CloseRegistrations stops new registrations for an active event.
func (s *EventService) CloseRegistrations(ctx context.Context, teamID, eventID, actorID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.CloseRegistrations", teamID, eventID)
	defer span.End()

	if err := validateKey(teamID, eventID); err != nil {
		return model.OutcomeDeclined, err
	}

	outcome := model.OutcomeDeclined
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		e, err := s.loadLive(ctx, teamID, eventID)
		if err != nil {
			return err
		}
		if e == nil {
			outcome = model.OutcomeNotFound
			return nil
		}
		if e.EffectiveStatus(s.clock()) != model.StatusActive {
			outcome = model.OutcomeDeclined
			return nil
		}

		now := s.clock()
		e.IsRegistrationClosed = true
		e.RegistrationClosedBy = actorID
		e.RegistrationClosedOn = &now
		e.UpdatedBy = actorID
		e.UpdatedOn = now
		if err := s.Store.Replace(ctx, e); err != nil {
			return err
		}
		s.refreshTeamCard(ctx, e)
		s.refreshIndex(ctx, e)
		outcome = model.OutcomeSucceeded
		return nil
	})
	if err != nil {
		return model.OutcomeDeclined, fmt.Errorf("close registrations: %w", err)
	}
	return outcome, nil
}

// ChangeStatus moves an event along its state machine. Cancelling cancels
// the calendar entry and notifies every attendee before the new status is
// stored; promoting a draft publishes it.
func (s *EventService) ChangeStatus(ctx context.Context, teamID, eventID string, next model.Status, actorID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.ChangeStatus", teamID, eventID)
	defer span.End()

	if err := validateKey(teamID, eventID); err != nil {
		return model.OutcomeDeclined, err
	}
	if !next.Valid() {
		return model.OutcomeDeclined, invalid("unknown status %q", next)
	}

	outcome := model.OutcomeDeclined
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		e, err := s.loadLive(ctx, teamID, eventID)
		if err != nil {
			return err
		}
		if e == nil {
			outcome = model.OutcomeNotFound
			return nil
		}
		current := e.EffectiveStatus(s.clock())
		if !current.CanTransition(next) {
			outcome = model.OutcomeDeclined
			return nil
		}

		if current == model.StatusDraft {
			if err := validateForPublish(e); err != nil {
				return err
			}
			e.UpdatedBy = actorID
			e.UpdatedOn = s.clock()
			_, outcome, err = s.publish(ctx, e, e.Audience)
			return err
		}

		if next == model.StatusCancelled {
			if e.GraphEventID != "" {
				if err := s.Calendar.CancelEvent(ctx, e.GraphEventID, e.CreatedBy, s.cancellationComment(ctx, actorID)); err != nil {
					s.logger.ErrorContext(ctx, "calendar event cancellation failed",
						"team_id", teamID, "event_id", eventID, "error", err)
					outcome = model.OutcomeDeclined
					return nil
				}
			}
			s.notifyUsersBestEffort(ctx, e, e.Attendees(), s.render.Cancelled(e), "cancellation")
		}

		e.Status = next
		e.UpdatedBy = actorID
		e.UpdatedOn = s.clock()
		if err := s.Store.Replace(ctx, e); err != nil {
			return err
		}
		s.refreshIndex(ctx, e)
		outcome = model.OutcomeSucceeded
		return nil
	})
	if err != nil {
		return model.OutcomeDeclined, fmt.Errorf("change status: %w", err)
	}
	return outcome, nil
}

// cancellationComment names the acting user when the directory knows them.
func (s *EventService) cancellationComment(ctx context.Context, actorID string) string {
	p, err := s.Users.User(ctx, actorID)
	if err != nil || p == nil || p.DisplayName == "" {
		return cancelledByTeam
	}
	return fmt.Sprintf(cancelledByActor, p.DisplayName)
}

// ExportAttendeesToTable pivots an event's attendees into rows: the first row
// carries the event columns and the first attendee, later rows only the next
// attendee. Attendees are sorted by display name.
func (s *EventService) ExportAttendeesToTable(ctx context.Context, teamID, eventID string) (*model.AttendeeTable, model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.ExportAttendeesToTable", teamID, eventID)
	defer span.End()

	if err := validateKey(teamID, eventID); err != nil {
		return nil, model.OutcomeDeclined, err
	}
	e, err := s.loadLive(ctx, teamID, eventID)
	if err != nil {
		return nil, model.OutcomeDeclined, err
	}
	if e == nil {
		return nil, model.OutcomeNotFound, nil
	}

	names, err := s.attendeeNames(ctx, e.Attendees())
	if err != nil {
		return nil, model.OutcomeDeclined, err
	}
	return AttendeeTable(e, names), model.OutcomeSucceeded, nil
}

// AttendeeTable lays out names, already sorted, against e's metadata.
func AttendeeTable(e *model.Event, names []string) *model.AttendeeTable {
	table := &model.AttendeeTable{
		Header: []string{"Event", "Category", "Start date", "End date", "Venue", "Registered", "Capacity", "Attendee"},
	}
	first := []string{
		e.Name,
		e.Category,
		formatDate(e.StartDate),
		formatDate(e.EndDate),
		e.Venue,
		strconv.Itoa(e.RegisteredAttendeesCount),
		strconv.Itoa(e.MaximumNumberOfParticipants),
		"",
	}
	if len(names) == 0 {
		table.Rows = [][]string{first}
		return table
	}
	blank := len(first) - 1
	for i, name := range names {
		row := make([]string, len(first))
		if i == 0 {
			copy(row, first)
		}
		row[blank] = name
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (s *EventService) attendeeNames(ctx context.Context, ids model.UserSet) ([]string, error) {
	if ids.Len() == 0 {
		return nil, nil
	}
	profiles, err := s.Users.Users(ctx, ids.IDs())
	if err != nil {
		return nil, fmt.Errorf("resolve attendees: %w", err)
	}
	found := make(map[string]bool, len(profiles))
	names := make([]string, 0, ids.Len())
	for _, p := range profiles {
		found[strings.ToLower(p.ID)] = true
		name := p.DisplayName
		if name == "" {
			name = p.ID
		}
		names = append(names, name)
	}
	for _, id := range ids.IDs() {
		if !found[id] {
			names = append(names, id)
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// SendReminder notifies every attendee of an active event. Events without
// attendees are skipped.
func (s *EventService) SendReminder(ctx context.Context, teamID, eventID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "EventService.SendReminder", teamID, eventID)
	defer span.End()

	if err := validateKey(teamID, eventID); err != nil {
		return model.OutcomeDeclined, err
	}
	e, err := s.loadLive(ctx, teamID, eventID)
	if err != nil {
		return model.OutcomeDeclined, err
	}
	if e == nil {
		return model.OutcomeNotFound, nil
	}
	if e.RegisteredAttendeesCount == 0 {
		return model.OutcomeSucceeded, nil
	}
	if e.EffectiveStatus(s.clock()) != model.StatusActive {
		return model.OutcomeDeclined, nil
	}
	if err := s.notifyUsers(ctx, e.Attendees(), s.render.Reminder(e)); err != nil {
		return model.OutcomeDeclined, fmt.Errorf("send reminder: %w", err)
	}
	return model.OutcomeSucceeded, nil
}

// applyEditable copies the organizer-editable fields of src onto dst.
// Identity, ownership, status and registration state stay untouched.
func applyEditable(dst, src *model.Event) {
	dst.Name = src.Name
	dst.Description = src.Description
	dst.Category = src.Category
	dst.Type = src.Type
	dst.Venue = src.Venue
	dst.MeetingLink = src.MeetingLink
	dst.PhotoURL = src.PhotoURL
	if src.Audience != "" {
		dst.Audience = src.Audience
	}
	dst.IsAutoRegistration = src.IsAutoRegistration
	dst.SelectedMembers = append([]model.SelectedMember(nil), src.SelectedMembers...)
	dst.MaximumNumberOfParticipants = src.MaximumNumberOfParticipants
	dst.StartDate = src.StartDate
	dst.StartTime = src.StartTime
	dst.EndDate = src.EndDate
	dst.EndTime = src.EndTime
}

func validateForPublish(e *model.Event) error {
	switch {
	case strings.TrimSpace(e.TeamID) == "":
		return invalid("team id is required")
	case strings.TrimSpace(e.Name) == "":
		return invalid("event name is required")
	case e.Audience != "" && e.Audience != model.AudiencePublic && e.Audience != model.AudiencePrivate:
		return invalid("unknown audience %q", e.Audience)
	case e.MaximumNumberOfParticipants <= 0:
		return invalid("maximum number of participants must be a positive integer")
	case e.StartDate.IsZero() || e.EndDate.IsZero():
		return invalid("start and end dates are required")
	case e.EndDate.Before(e.StartDate):
		return invalid("end date is before start date")
	case e.Type == model.EventTypeInPerson && strings.TrimSpace(e.Venue) == "":
		return invalid("venue is required for in-person events")
	case e.Type == model.EventTypeLiveEvent && strings.TrimSpace(e.MeetingLink) == "":
		return invalid("meeting link is required for live events")
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
