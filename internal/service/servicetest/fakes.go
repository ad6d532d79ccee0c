// Package servicetest provides in-memory collaborators for exercising the
// event workflows without external systems.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/repository"
	"github.com/Shivanand-hulikatti/lnd-training-events/internal/service"
)

// Journal records the order in which collaborators were called.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) add(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of the recorded calls.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Index returns the position of the first entry equal to name, or -1.
func (j *Journal) Index(name string) int {
	for i, e := range j.Entries() {
		if e == name {
			return i
		}
	}
	return -1
}

// Store is an in-memory event store with version checks.
type Store struct {
	mu      sync.Mutex
	events  map[string]*model.Event
	journal *Journal

	// Conflicts makes the next n Replace calls fail with ErrConflict.
	Conflicts int
	// Err, when set, fails every call.
	Err error

	Inserts  int
	Replaces int
}

// NewStore returns an empty store.
func NewStore(j *Journal) *Store {
	return &Store{events: make(map[string]*model.Event), journal: j}
}

func key(teamID, eventID string) string { return teamID + "/" + eventID }

// Seed stores e as is, assigning version 1 when it has none.
func (s *Store) Seed(e *model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := e.Clone()
	if c.Version == 0 {
		c.Version = 1
	}
	s.events[key(e.TeamID, e.EventID)] = c
}

// Event returns the stored copy of an event, or nil.
func (s *Store) Event(teamID, eventID string) *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[key(teamID, eventID)]; ok {
		return e.Clone()
	}
	return nil
}

func (s *Store) Get(_ context.Context, teamID, eventID string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	e, ok := s.events[key(teamID, eventID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e.Clone(), nil
}

func (s *Store) InsertOrReplace(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.add("store.insert_or_replace")
	if s.Err != nil {
		return s.Err
	}
	s.Inserts++
	e.Version = 1
	if prev, ok := s.events[key(e.TeamID, e.EventID)]; ok {
		e.Version = prev.Version + 1
	}
	s.events[key(e.TeamID, e.EventID)] = e.Clone()
	return nil
}

func (s *Store) Replace(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.add("store.replace")
	if s.Err != nil {
		return s.Err
	}
	s.Replaces++
	prev, ok := s.events[key(e.TeamID, e.EventID)]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Conflicts > 0 {
		s.Conflicts--
		return repository.ErrConflict
	}
	if prev.Version != e.Version {
		return repository.ErrConflict
	}
	e.Version = prev.Version + 1
	s.events[key(e.TeamID, e.EventID)] = e.Clone()
	return nil
}

// List returns stored events matching f, ordered by start date.
func (s *Store) List(_ context.Context, f repository.ListFilter) ([]*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*model.Event
	for _, e := range s.events {
		if f.TeamID != "" && e.TeamID != f.TeamID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if e.IsRemoved && !f.IncludeRemoved {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

// Calendar records calendar calls.
type Calendar struct {
	mu      sync.Mutex
	journal *Journal
	next    int

	CreateErr error
	UpdateErr error
	CancelErr error

	Created        []*model.Event
	Updated        []*model.Event
	Cancelled      []string
	CancelComments []string
}

func (c *Calendar) CreateEvent(_ context.Context, e *model.Event) (*model.CalendarEventRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal.add("calendar.create")
	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	c.next++
	c.Created = append(c.Created, e.Clone())
	return &model.CalendarEventRef{ID: fmt.Sprintf("cal-%d", c.next)}, nil
}

func (c *Calendar) UpdateEvent(_ context.Context, e *model.Event) (*model.CalendarEventRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal.add("calendar.update")
	if c.UpdateErr != nil {
		return nil, c.UpdateErr
	}
	c.Updated = append(c.Updated, e.Clone())
	return &model.CalendarEventRef{ID: e.GraphEventID}, nil
}

func (c *Calendar) CancelEvent(_ context.Context, calendarEventID, _, comment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.journal.add("calendar.cancel")
	if c.CancelErr != nil {
		return c.CancelErr
	}
	c.Cancelled = append(c.Cancelled, calendarEventID)
	c.CancelComments = append(c.CancelComments, comment)
	return nil
}

// Index counts refresh triggers.
type Index struct {
	mu        sync.Mutex
	journal   *Journal
	Err       error
	Refreshes int
}

func (i *Index) RefreshOnDemand(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.journal.add("index.refresh")
	i.Refreshes++
	return i.Err
}

// Delivery is one SendToUsers call.
type Delivery struct {
	UserIDs []string
	Message model.Message
}

// TeamPost is one SendToTeam call.
type TeamPost struct {
	TeamID    string
	Message   model.Message
	ReplaceID string
}

// Notifier records deliveries.
type Notifier struct {
	mu      sync.Mutex
	journal *Journal
	next    int

	UsersErr error
	TeamErr  error

	Deliveries []Delivery
	TeamPosts  []TeamPost
}

func (n *Notifier) SendToUsers(_ context.Context, users []model.UserProfile, msg model.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.journal.add("notify.users")
	if n.UsersErr != nil {
		return n.UsersErr
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	n.Deliveries = append(n.Deliveries, Delivery{UserIDs: ids, Message: msg})
	return nil
}

func (n *Notifier) SendToTeam(_ context.Context, teamID string, msg model.Message, replaceID string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.journal.add("notify.team")
	if n.TeamErr != nil {
		return "", n.TeamErr
	}
	n.TeamPosts = append(n.TeamPosts, TeamPost{TeamID: teamID, Message: msg, ReplaceID: replaceID})
	if replaceID != "" {
		return replaceID, nil
	}
	n.next++
	return fmt.Sprintf("msg-%d", n.next), nil
}

// DeliveriesWithSubjectPrefix returns deliveries whose subject starts with prefix.
func (n *Notifier) DeliveriesWithSubjectPrefix(prefix string) []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Delivery
	for _, d := range n.Deliveries {
		if strings.HasPrefix(d.Message.Subject, prefix) {
			out = append(out, d)
		}
	}
	return out
}

// Directory serves group memberships and user profiles from maps. Unknown
// users resolve to a profile named after their id.
type Directory struct {
	Groups   map[string][]string
	Profiles map[string]model.UserProfile
	Err      error
}

func (d *Directory) GroupMembers(_ context.Context, groupID string) ([]string, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Groups[groupID], nil
}

func (d *Directory) Users(ctx context.Context, ids []string) ([]model.UserProfile, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]model.UserProfile, 0, len(ids))
	for _, id := range ids {
		p, _ := d.User(ctx, id)
		out = append(out, *p)
	}
	return out, nil
}

func (d *Directory) User(_ context.Context, id string) (*model.UserProfile, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if p, ok := d.Profiles[id]; ok {
		return &p, nil
	}
	return &model.UserProfile{ID: id, DisplayName: id, Email: id + "@example.com"}, nil
}

// Fakes wires one of each collaborator around a shared journal.
type Fakes struct {
	Journal   *Journal
	Store     *Store
	Calendar  *Calendar
	Index     *Index
	Notifier  *Notifier
	Directory *Directory
}

// New returns a fresh set of fakes.
func New() *Fakes {
	j := &Journal{}
	return &Fakes{
		Journal:   j,
		Store:     NewStore(j),
		Calendar:  &Calendar{journal: j},
		Index:     &Index{journal: j},
		Notifier:  &Notifier{journal: j},
		Directory: &Directory{Groups: map[string][]string{}, Profiles: map[string]model.UserProfile{}},
	}
}

// Collaborators returns the fakes as service collaborators.
func (f *Fakes) Collaborators() service.Collaborators {
	return service.Collaborators{
		Store:    f.Store,
		Calendar: f.Calendar,
		Index:    f.Index,
		Notifier: f.Notifier,
		Groups:   f.Directory,
		Users:    f.Directory,
	}
}
