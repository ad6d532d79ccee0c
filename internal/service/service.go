// Package service implements the event lifecycle and registration workflows.
// It validates requests, applies business rules, and orchestrates the event
// store with the calendar, notification and search collaborators.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/render"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/retry"
)

// ErrInvalidInput marks requests rejected before any side effect.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// EventStore persists events keyed by team and event id. Replace fails with
// repository.ErrConflict when the stored version moved on.
type EventStore interface {
	Get(ctx context.Context, teamID, eventID string) (*model.Event, error)
	InsertOrReplace(ctx context.Context, e *model.Event) error
	Replace(ctx context.Context, e *model.Event) error
}

// CalendarGateway mirrors events into the organizer's calendar.
type CalendarGateway interface {
	CreateEvent(ctx context.Context, e *model.Event) (*model.CalendarEventRef, error)
	UpdateEvent(ctx context.Context, e *model.Event) (*model.CalendarEventRef, error)
	CancelEvent(ctx context.Context, calendarEventID, organizerID, comment string) error
}

// SearchIndex is the eventually consistent secondary view of events.
type SearchIndex interface {
	RefreshOnDemand(ctx context.Context) error
}

// Notifier delivers rendered messages to users or to a team channel.
// SendToTeam edits replaceMessageID when set and returns the id of the
// message now showing the content.
type Notifier interface {
	SendToUsers(ctx context.Context, users []model.UserProfile, msg model.Message) error
	SendToTeam(ctx context.Context, teamID string, msg model.Message, replaceMessageID string) (string, error)
}

// GroupExpander resolves a group to its member user ids.
type GroupExpander interface {
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

// UserDirectory looks up employee profiles.
type UserDirectory interface {
	Users(ctx context.Context, ids []string) ([]model.UserProfile, error)
	User(ctx context.Context, id string) (*model.UserProfile, error)
}

// Collaborators bundles the external systems the workflows drive.
type Collaborators struct {
	Store    EventStore
	Calendar CalendarGateway
	Index    SearchIndex
	Notifier Notifier
	Groups   GroupExpander
	Users    UserDirectory
}

// Option customizes a service.
type Option func(*core)

// WithRetryPolicy replaces the optimistic-concurrency retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *core) { c.retry = p }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *core) { c.logger = l }
}

// WithRenderer sets the notification renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(c *core) { c.render = r }
}

// core holds what the lifecycle and registration services share.
type core struct {
	Collaborators
	render *render.Renderer
	retry  retry.Policy
	now    func() time.Time
	logger *slog.Logger
	tracer trace.Tracer
}

func newCore(c Collaborators, opts []Option) *core {
	s := &core{
		Collaborators: c,
		render:        render.New(""),
		retry:         retry.New(repository.IsConflict),
		now:           time.Now,
		logger:        slog.Default(),
		tracer:        otel.Tracer("github.com/Shivanand-hulikatti/lnd-training-events/internal/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (c *core) startSpan(ctx context.Context, name, teamID, eventID string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("team_id", teamID),
		attribute.String("event_id", eventID),
	))
}

func (c *core) clock() time.Time {
	return c.now().UTC()
}

// loadLive returns the stored event, or nil when it is missing or removed.
func (c *core) loadLive(ctx context.Context, teamID, eventID string) (*model.Event, error) {
	e, err := c.Store.Get(ctx, teamID, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if e.IsRemoved {
		return nil, nil
	}
	return e, nil
}

// refreshIndex triggers an index refresh. Failures never reach the caller.
func (c *core) refreshIndex(ctx context.Context, e *model.Event) {
	if c.Index == nil {
		return
	}
	if err := c.Index.RefreshOnDemand(ctx); err != nil {
		c.logger.WarnContext(ctx, "search index refresh failed",
			"team_id", e.TeamID, "event_id", e.EventID, "error", err)
	}
}

// notifyUsers resolves profiles for ids and delivers msg to them.
func (c *core) notifyUsers(ctx context.Context, ids model.UserSet, msg model.Message) error {
	if ids.Len() == 0 {
		return nil
	}
	profiles, err := c.Users.Users(ctx, ids.IDs())
	if err != nil {
		return fmt.Errorf("resolve users: %w", err)
	}
	if len(profiles) == 0 {
		return nil
	}
	if err := c.Notifier.SendToUsers(ctx, profiles, msg); err != nil {
		return fmt.Errorf("send to users: %w", err)
	}
	return nil
}

// notifyUsersBestEffort is notifyUsers for side effects that follow a
// successful write: failures are logged only.
func (c *core) notifyUsersBestEffort(ctx context.Context, e *model.Event, ids model.UserSet, msg model.Message, what string) {
	if err := c.notifyUsers(ctx, ids, msg); err != nil {
		c.logger.WarnContext(ctx, what+" notification failed",
			"team_id", e.TeamID, "event_id", e.EventID, "recipients", ids.Len(), "error", err)
	}
}

// refreshTeamCard edits the team's card for e after a committed change.
func (c *core) refreshTeamCard(ctx context.Context, e *model.Event) {
	if _, err := c.Notifier.SendToTeam(ctx, e.TeamID, c.render.TeamCard(e), e.TeamCardActivityID); err != nil {
		c.logger.WarnContext(ctx, "team card refresh failed",
			"team_id", e.TeamID, "event_id", e.EventID, "error", err)
	}
}

func validateKey(teamID, eventID string) error {
	if strings.TrimSpace(teamID) == "" {
		return invalid("team id is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return invalid("event id is required")
	}
	return nil
}
