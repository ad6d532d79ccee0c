// Package repository implements the event store on PostgreSQL.
// It uses pgx directly (no ORM); every row carries a version column that
// serves as its optimistic-concurrency token.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional write lost against a concurrent
// writer. Callers re-read and retry.
var ErrConflict = errors.New("event was modified concurrently")

// IsConflict reports whether err is a retriable concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

const eventColumns = `team_id, event_id, name, description, category, type, venue, meeting_link, photo_url,
	status, audience, is_auto_registration, selected_members,
	mandatory_attendees, optional_attendees, registered_attendees, auto_registered_attendees,
	registered_attendees_count, maximum_number_of_participants,
	start_date, start_time, end_date, end_time, number_of_occurrences,
	graph_event_id, is_registration_closed, registration_closed_by, registration_closed_on,
	is_removed, team_card_activity_id, created_by, created_on, updated_by, updated_on, version`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Get returns a single event or ErrNotFound. Removed events are returned;
// callers decide how to treat them.
func (r *EventRepository) Get(ctx context.Context, teamID, eventID string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE team_id = $1 AND event_id = $2`,
		teamID, eventID,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// InsertOrReplace writes e unconditionally and stores the new version on it.
func (r *EventRepository) InsertOrReplace(ctx context.Context, e *model.Event) error {
	rec, err := toRecord(e)
	if err != nil {
		return err
	}
	args := rec.args()
	args[len(args)-1] = int64(1) // version of a freshly inserted row
	err = r.db.QueryRow(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (`+placeholders(len(args))+`)
		 ON CONFLICT (team_id, event_id) DO UPDATE SET `+updateAssignments()+`, version = events.version + 1
		 RETURNING version`,
		args...,
	).Scan(&e.Version)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// Replace writes e only if the stored version still equals e.Version, which
// is the last positional argument of the record.
// A stale version yields ErrConflict, a missing row ErrNotFound.
func (r *EventRepository) Replace(ctx context.Context, e *model.Event) error {
	rec, err := toRecord(e)
	if err != nil {
		return err
	}
	args := rec.args()
	var version int64
	err = r.db.QueryRow(ctx,
		`UPDATE events SET `+updateAssignments()+`, version = version + 1
		 WHERE team_id = $1 AND event_id = $2 AND version = $`+fmt.Sprint(len(args))+`
		 RETURNING version`,
		args...,
	).Scan(&version)
	if err == nil {
		e.Version = version
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("replace event: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE team_id = $1 AND event_id = $2)`,
		e.TeamID, e.EventID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	TeamID         string
	Status         model.Status
	IncludeRemoved bool
}

// List returns events matching f ordered by start date.
func (r *EventRepository) List(ctx context.Context, f ListFilter) ([]*model.Event, error) {
	var (
		where []string
		args  []any
	)
	if f.TeamID != "" {
		args = append(args, f.TeamID)
		where = append(where, fmt.Sprintf("team_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.IncludeRemoved {
		where = append(where, "NOT is_removed")
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_date NULLS LAST, created_on`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// updateAssignments sets every mutable column from the positional arguments
// produced by eventRecord.args. Key columns and the version are excluded.
func updateAssignments() string {
	cols := columnNames()
	parts := make([]string, 0, len(cols))
	for i, col := range cols {
		switch col {
		case "team_id", "event_id", "version":
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = $%d", col, i+1))
	}
	return strings.Join(parts, ", ")
}

func columnNames() []string {
	raw := strings.Split(eventColumns, ",")
	cols := make([]string, 0, len(raw))
	for _, c := range raw {
		cols = append(cols, strings.TrimSpace(c))
	}
	return cols
}
