// Package search maintains a Redis projection of events for discovery.
// The projection is rebuilt from the event store in the background and may
// lag behind it.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
)

const keyPrefix = "lnd:"

// Source lists every stored event.
type Source interface {
	List(ctx context.Context, f repository.ListFilter) ([]*model.Event, error)
}

// Query filters Search results. Zero values match everything.
type Query struct {
	TeamID string
	Status model.Status
	Text   string
}

// Indexer keeps the index in sync with the store.
type Indexer struct {
	rdb     *redis.Client
	source  Source
	logger  *slog.Logger
	now     func() time.Time
	trigger chan struct{}
}

// NewIndexer returns an Indexer writing to rdb.
func NewIndexer(rdb *redis.Client, source Source, logger *slog.Logger) *Indexer {
	return &Indexer{
		rdb:     rdb,
		source:  source,
		logger:  logger,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
	}
}

// Connect opens a Redis client and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RefreshOnDemand schedules a rebuild and returns immediately. Requests made
// while one is pending are coalesced.
func (ix *Indexer) RefreshOnDemand(ctx context.Context) error {
	select {
	case ix.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Run rebuilds the index once, then again on every refresh request, until
// ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context) {
	ix.rebuildLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ix.trigger:
			ix.rebuildLogged(ctx)
		}
	}
}

func (ix *Indexer) rebuildLogged(ctx context.Context) {
	n, err := ix.Rebuild(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			ix.logger.ErrorContext(ctx, "search index rebuild failed", "error", err)
		}
		return
	}
	ix.logger.DebugContext(ctx, "search index rebuilt", "events", n)
}

// Rebuild writes the current state of every event and drops removed ones.
// It returns the number of indexed events.
func (ix *Indexer) Rebuild(ctx context.Context) (int, error) {
	events, err := ix.source.List(ctx, repository.ListFilter{IncludeRemoved: true})
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	now := ix.now()

	indexed := 0
	_, err = ix.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range events {
			member := memberOf(e.TeamID, e.EventID)
			if e.IsRemoved {
				pipe.Del(ctx, docKey(member))
				pipe.ZRem(ctx, allKey(), member)
				pipe.ZRem(ctx, teamKey(e.TeamID), member)
				continue
			}
			doc, err := json.Marshal(Summarize(e, now))
			if err != nil {
				return fmt.Errorf("encode %s: %w", member, err)
			}
			score := redis.Z{Score: float64(e.StartDate.Unix()), Member: member}
			pipe.Set(ctx, docKey(member), doc, 0)
			pipe.ZAdd(ctx, allKey(), score)
			pipe.ZAdd(ctx, teamKey(e.TeamID), score)
			indexed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("write index: %w", err)
	}
	return indexed, nil
}

// Search returns indexed events matching q ordered by start date.
func (ix *Indexer) Search(ctx context.Context, q Query) ([]model.EventSummary, error) {
	key := allKey()
	if q.TeamID != "" {
		key = teamKey(q.TeamID)
	}
	members, err := ix.rdb.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(members) == 0 {
		return []model.EventSummary{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = docKey(m)
	}
	docs, err := ix.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	out := make([]model.EventSummary, 0, len(docs))
	for i, raw := range docs {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		var summary model.EventSummary
		if err := json.Unmarshal([]byte(s), &summary); err != nil {
			ix.logger.WarnContext(ctx, "skipping corrupt index document", "key", keys[i], "error", err)
			continue
		}
		if q.Matches(summary) {
			out = append(out, summary)
		}
	}
	return out, nil
}

// Summarize projects e for the index. Status is the effective status at now.
func Summarize(e *model.Event, now time.Time) model.EventSummary {
	return model.EventSummary{
		TeamID:                      e.TeamID,
		EventID:                     e.EventID,
		Name:                        e.Name,
		Category:                    e.Category,
		Status:                      e.EffectiveStatus(now),
		Audience:                    e.Audience,
		StartDate:                   e.StartDate,
		EndDate:                     e.EndDate,
		RegisteredAttendeesCount:    e.RegisteredAttendeesCount,
		MaximumNumberOfParticipants: e.MaximumNumberOfParticipants,
		IsRegistrationClosed:        e.IsRegistrationClosed,
	}
}

// Matches reports whether s satisfies q. Text matches name or category,
// case-insensitively.
func (q Query) Matches(s model.EventSummary) bool {
	if q.TeamID != "" && s.TeamID != q.TeamID {
		return false
	}
	if q.Status != "" && s.Status != q.Status {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		return strings.Contains(strings.ToLower(s.Name), text) ||
			strings.Contains(strings.ToLower(s.Category), text)
	}
	return true
}

func memberOf(teamID, eventID string) string { return teamID + "/" + eventID }
func docKey(member string) string { return keyPrefix + "event:" + member }
func allKey() string { return keyPrefix + "events" }
func teamKey(teamID string) string { return keyPrefix + "team:" + teamID + ":events" }
