package structure

import "sort"

// IDSet is a set of node IDs. A nil IDSet is empty.
type IDSet map[string]struct{}

// NewIDSet creates a set containing ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Slice returns the IDs sorted.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns a copy of the set.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Intersects reports whether s and o share an ID.
func (s IDSet) Intersects(o IDSet) bool {
	if len(o) < len(s) {
		s, o = o, s
	}
	for id := range s {
		if o.Has(id) {
			return true
		}
	}
	return false
}
