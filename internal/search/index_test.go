package search

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

func TestSummarizeUsesEffectiveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	e := &model.Event{
		TeamID:    "team-1",
		EventID:   "ev-1",
		Name:      "Go fundamentals",
		Status:    model.StatusActive,
		StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}

	s := Summarize(e, now)
	if s.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want completed", s.Status)
	}
	if s.TeamID != "team-1" || s.EventID != "ev-1" {
		t.Fatalf("key = %s/%s", s.TeamID, s.EventID)
	}
}

func TestQueryMatches(t *testing.T) {
	t.Parallel()

	s := model.EventSummary{TeamID: "team-1", Name: "Go Fundamentals", Category: "Engineering", Status: model.StatusActive}
	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{name: "empty", q: Query{}, want: true},
		{name: "team", q: Query{TeamID: "team-1"}, want: true},
		{name: "other team", q: Query{TeamID: "team-2"}, want: false},
		{name: "status", q: Query{Status: model.StatusDraft}, want: false},
		{name: "name text", q: Query{Text: "fundamentals"}, want: true},
		{name: "category text", q: Query{Text: " ENGINEER "}, want: true},
		{name: "no text match", q: Query{Text: "rust"}, want: false},
	}
	for _, tt := range tests {
		if got := tt.q.Matches(s); got != tt.want {
			t.Fatalf("%s: matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRefreshOnDemandCoalesces(t *testing.T) {
	t.Parallel()

	ix := NewIndexer(nil, nil, nil)
	for i := 0; i < 3; i++ {
		if err := ix.RefreshOnDemand(context.Background()); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	if len(ix.trigger) != 1 {
		t.Fatalf("pending triggers = %d, want 1", len(ix.trigger))
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	m := memberOf("team-1", "ev-1")
	if docKey(m) != "lnd:event:team-1/ev-1" || teamKey("team-1") != "lnd:team:team-1:events" {
		t.Fatalf("keys = %q, %q", docKey(m), teamKey("team-1"))
	}
}
