package permission

// Set holds permission names in first-insertion order with duplicates
// collapsed. The zero value is empty and ready to use.
//
// A Set is not safe for concurrent mutation; the engine builds one per
// resolution and treats it as read-only afterwards.
type Set struct {
	names []string
	index map[string]struct{}
}

// NewSet builds a Set from names, dropping duplicates while keeping
// the position of each name's first occurrence.
func NewSet(names ...string) *Set {
	s := &Set{}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add inserts name and reports whether it was not already present.
// Empty names are ignored.
func (s *Set) Add(name string) bool {
	if name == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[name]; ok {
		return false
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Has reports whether name is in the set.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[name]
	return ok
}

// Names returns a copy of the names in insertion order.
func (s *Set) Names() []string {
	if s == nil || len(s.names) == 0 {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of distinct names in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
