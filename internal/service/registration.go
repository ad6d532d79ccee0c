package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// RegistrationService handles employees registering for events.
//
// Each command runs check, mutate, persist and propagate as one unit under
// the retry policy: a conflicting write restarts it from a fresh read so
// eligibility and capacity are judged against the latest state.
type RegistrationService struct {
	*core
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(c Collaborators, opts ...Option) *RegistrationService {
	return &RegistrationService{core: newCore(c, opts)}
}

// Register gives userID a seat. Registering twice is a success that changes
// nothing.
//
// The calendar is updated after the store. When that update fails the caller
// is told the registration failed although the seat is stored; the calendar
// catches up on the next successful sync.
func (s *RegistrationService) Register(ctx context.Context, teamID, eventID, userID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "RegistrationService.Register", teamID, eventID)
	defer span.End()

	if err := validateRegistration(teamID, eventID, userID); err != nil {
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
		if reason := s.declineReason(e, userID); reason != "" {
			s.logger.DebugContext(ctx, "registration declined",
				"team_id", teamID, "event_id", eventID, "reason", reason)
			outcome = model.OutcomeDeclined
			return nil
		}
		if e.IsRegistered(userID) {
			outcome = model.OutcomeSucceeded
			return nil
		}
		if e.IsRegistrationClosed || e.IsFull() {
			outcome = model.OutcomeDeclined
			return nil
		}

		e.Register(userID)
		e.UpdatedOn = s.clock()
		if err := s.Store.Replace(ctx, e); err != nil {
			return err
		}
		outcome = s.propagate(ctx, e)
		return nil
	})
	if err != nil {
		return model.OutcomeDeclined, fmt.Errorf("register: %w", err)
	}
	return outcome, nil
}

// Unregister releases userID's seat, whether self- or auto-registered.
func (s *RegistrationService) Unregister(ctx context.Context, teamID, eventID, userID string) (model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "RegistrationService.Unregister", teamID, eventID)
	defer span.End()

	if err := validateRegistration(teamID, eventID, userID); err != nil {
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
		if reason := s.declineReason(e, userID); reason != "" {
			s.logger.DebugContext(ctx, "unregistration declined",
				"team_id", teamID, "event_id", eventID, "reason", reason)
			outcome = model.OutcomeDeclined
			return nil
		}
		if !e.Unregister(userID) {
			outcome = model.OutcomeDeclined
			return nil
		}

		e.UpdatedOn = s.clock()
		if err := s.Store.Replace(ctx, e); err != nil {
			return err
		}
		outcome = s.propagate(ctx, e)
		return nil
	})
	if err != nil {
		return model.OutcomeDeclined, fmt.Errorf("unregister: %w", err)
	}
	return outcome, nil
}

// GetEventForUser returns the event annotated for userID.
func (s *RegistrationService) GetEventForUser(ctx context.Context, eventID, teamID, userID string) (*model.UserEvent, model.Outcome, error) {
	ctx, span := s.startSpan(ctx, "RegistrationService.GetEventForUser", teamID, eventID)
	defer span.End()

	if err := validateRegistration(teamID, eventID, userID); err != nil {
		return nil, model.OutcomeDeclined, err
	}
	e, err := s.loadLive(ctx, teamID, eventID)
	if err != nil {
		return nil, model.OutcomeDeclined, err
	}
	if e == nil {
		return nil, model.OutcomeNotFound, nil
	}
	return &model.UserEvent{
		Event:               e,
		IsMandatoryForUser:  e.MandatoryAttendees.Has(userID) || e.AutoRegisteredAttendees.Has(userID),
		IsRegisteredForUser: e.IsRegistered(userID),
		CanUserRegister:     e.IsEligible(userID),
	}, model.OutcomeSucceeded, nil
}

// declineReason names the rule that keeps userID from changing their
// registration, or returns "" when none applies.
func (s *RegistrationService) declineReason(e *model.Event, userID string) string {
	switch {
	case e.Status != model.StatusActive:
		return "event is not active"
	case e.HasEnded(s.clock()):
		return "event has ended"
	case !e.IsEligible(userID):
		return "user is not invited to this private event"
	}
	return ""
}

// propagate pushes a committed registration change to the calendar, the
// team card and the index.
func (s *RegistrationService) propagate(ctx context.Context, e *model.Event) model.Outcome {
	e.NumberOfOccurrences = e.Occurrences()
	if ref, err := s.Calendar.UpdateEvent(ctx, e); err != nil || ref == nil {
		s.logger.ErrorContext(ctx, "calendar attendee sync failed",
			"team_id", e.TeamID, "event_id", e.EventID, "error", err)
		return model.OutcomeDeclined
	}
	s.refreshTeamCard(ctx, e)
	s.refreshIndex(ctx, e)
	return model.OutcomeSucceeded
}

func validateRegistration(teamID, eventID, userID string) error {
	if err := validateKey(teamID, eventID); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return invalid("user id is required")
	}
	return nil
}
