package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

func TestRecordStoresAttendeesAsDelimitedLists(t *testing.T) {
	t.Parallel()

	e := &model.Event{
		TeamID:              "team-1",
		EventID:             "evt-1",
		Status:              model.StatusActive,
		RegisteredAttendees: model.NewUserSet("Zoe", "adam"),
		SelectedMembers:     []model.SelectedMember{{ID: "grp-1", IsGroup: true, IsMandatory: true}},
		StartDate:           time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	rec, err := toRecord(e)
	if err != nil {
		t.Fatalf("to record: %v", err)
	}
	if rec.RegisteredAttendees != "adam;zoe" {
		t.Fatalf("registered = %q, want %q", rec.RegisteredAttendees, "adam;zoe")
	}
	if rec.MandatoryAttendees != "" {
		t.Fatalf("mandatory = %q, want empty", rec.MandatoryAttendees)
	}
	if rec.EndDate != nil {
		t.Fatal("expected zero end date to be stored as NULL")
	}
	if !strings.Contains(string(rec.SelectedMembers), `"is_group":true`) {
		t.Fatalf("selected members = %s", rec.SelectedMembers)
	}

	back, err := rec.toEvent()
	if err != nil {
		t.Fatalf("to event: %v", err)
	}
	if !back.RegisteredAttendees.Equal(e.RegisteredAttendees) {
		t.Fatalf("registered = %v", back.RegisteredAttendees.IDs())
	}
	if len(back.SelectedMembers) != 1 || !back.SelectedMembers[0].IsGroup {
		t.Fatalf("selected = %+v", back.SelectedMembers)
	}
	if !back.EndDate.IsZero() || !back.StartDate.Equal(e.StartDate) {
		t.Fatalf("dates = %v / %v", back.StartDate, back.EndDate)
	}
}

func TestEmptySelectionEncodesAsArray(t *testing.T) {
	t.Parallel()

	rec, err := toRecord(&model.Event{})
	if err != nil {
		t.Fatalf("to record: %v", err)
	}
	if string(rec.SelectedMembers) != "[]" {
		t.Fatalf("selected = %s, want []", rec.SelectedMembers)
	}
}

func TestArgsMatchColumns(t *testing.T) {
	t.Parallel()

	rec := &eventRecord{}
	cols := columnNames()
	if len(rec.args()) != len(cols) || len(rec.dest()) != len(cols) {
		t.Fatalf("args=%d dest=%d columns=%d", len(rec.args()), len(rec.dest()), len(cols))
	}
	if cols[len(cols)-1] != "version" {
		t.Fatalf("last column = %q, want version", cols[len(cols)-1])
	}
}

func TestUpdateAssignmentsSkipKeys(t *testing.T) {
	t.Parallel()

	set := updateAssignments()
	for _, assignment := range strings.Split(set, ", ") {
		col, _, _ := strings.Cut(assignment, " = ")
		switch col {
		case "team_id", "event_id", "version":
			t.Fatalf("assignments contain %q: %s", col, set)
		}
	}
	if !strings.Contains(set, "graph_event_id = $") {
		t.Fatalf("assignments miss graph_event_id: %s", set)
	}
	if !strings.HasPrefix(set, "name = $3") {
		t.Fatalf("assignments = %s", set)
	}
}

func TestIsConflict(t *testing.T) {
	t.Parallel()

	if !IsConflict(fmt.Errorf("wrap: %w", ErrConflict)) {
		t.Fatal("expected wrapped conflict")
	}
	if IsConflict(errors.New("other")) || IsConflict(ErrNotFound) {
		t.Fatal("unexpected conflict")
	}
}
