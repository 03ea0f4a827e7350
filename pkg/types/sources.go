// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceSet is the order-preserving, duplicate-free collection of URLs seen
// during one run. A SourceSet is owned by a single stage at a time and
// carries no lock.
type SourceSet struct {
	order []string
	seen  map[string]struct{}
}

// NewSourceSet returns an empty SourceSet.
func NewSourceSet() *SourceSet {
	return &SourceSet{seen: make(map[string]struct{})}
}

// Add appends url if it has not been seen and reports whether it was new.
// Empty URLs are ignored.
func (s *SourceSet) Add(url string) bool {
	if url == "" {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains reports whether url is in the set.
func (s *SourceSet) Contains(url string) bool {
	_, ok := s.seen[url]
	return ok
}

// Len returns the number of distinct URLs.
func (s *SourceSet) Len() int {
	return len(s.order)
}

// URLs returns a copy of the URLs in insertion order.
func (s *SourceSet) URLs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
