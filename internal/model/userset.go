package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// listSeparator joins user identifiers in the stored form of a UserSet.
const listSeparator = ";"

// UserSet is an unordered set of user identifiers. Identifiers are compared
// case-insensitively. The zero value is an empty set ready to use.
type UserSet struct {
	m map[string]struct{}
}

// NewUserSet returns a set holding ids.
func NewUserSet(ids ...string) UserSet {
	var s UserSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// ParseUserSet decodes the semicolon-delimited stored form.
func ParseUserSet(raw string) UserSet {
	return NewUserSet(strings.Split(raw, listSeparator)...)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Add inserts id and reports whether it was absent.
func (s *UserSet) Add(id string) bool {
	id = normalizeID(id)
	if id == "" {
		return false
	}
	if s.m == nil {
		s.m = make(map[string]struct{})
	}
	if _, ok := s.m[id]; ok {
		return false
	}
	s.m[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (s *UserSet) Remove(id string) bool {
	id = normalizeID(id)
	if _, ok := s.m[id]; !ok {
		return false
	}
	delete(s.m, id)
	return true
}

// Has reports whether id is in the set.
func (s UserSet) Has(id string) bool {
	_, ok := s.m[normalizeID(id)]
	return ok
}

// Len returns the number of identifiers.
func (s UserSet) Len() int {
	return len(s.m)
}

// IDs returns the identifiers in sorted order.
func (s UserSet) IDs() []string {
	ids := make([]string, 0, len(s.m))
	for id := range s.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (s UserSet) Clone() UserSet {
	return NewUserSet(s.IDs()...)
}

// Union returns the identifiers present in s or other.
func (s UserSet) Union(other UserSet) UserSet {
	out := s.Clone()
	for id := range other.m {
		out.Add(id)
	}
	return out
}

// Minus returns the identifiers of s that are not in other.
func (s UserSet) Minus(other UserSet) UserSet {
	var out UserSet
	for id := range s.m {
		if !other.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Intersect returns the identifiers present in both sets.
func (s UserSet) Intersect(other UserSet) UserSet {
	var out UserSet
	for id := range s.m {
		if other.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Equal reports whether both sets hold the same identifiers.
func (s UserSet) Equal(other UserSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id := range s.m {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// String returns the semicolon-delimited stored form.
func (s UserSet) String() string {
	return strings.Join(s.IDs(), listSeparator)
}

// MarshalJSON encodes the set as a sorted array.
func (s UserSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON decodes an array of identifiers.
func (s *UserSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewUserSet(ids...)
	return nil
}
