package store

import (
	"fmt"
	"regexp"

	"github.com/soma-enyi/soroban-ajo/internal/guard"
	"github.com/soma-enyi/soroban-ajo/internal/stats"
)

// Invalidate removes key and reports whether it existed.
func (s *Store) Invalidate(key string) bool {
	k := guard.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidate(k)
}

// InvalidateMany removes the given keys and returns how many existed.
func (s *Store) InvalidateMany(keys []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, key := range keys {
		if s.invalidate(guard.SanitizeKey(key)) {
			n++
		}
	}
	return n
}

// InvalidateByTag removes every entry carrying tag and returns the count.
func (s *Store) InvalidateByTag(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.tags[tag]
	if !ok {
		return 0
	}
	// Copy first; invalidation mutates the index under us.
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	n := 0
	for _, k := range keys {
		if s.invalidate(k) {
			n++
		}
	}
	return n
}

// InvalidateByVersion removes every entry whose version matches exactly
// and returns the count.
func (s *Store) InvalidateByVersion(version string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []string
	for _, k := range s.lru.Keys() {
		if e, ok := s.lru.Peek(k); ok && e.Version == version {
			matches = append(matches, k)
		}
	}

	n := 0
	for _, k := range matches {
		if s.invalidate(k) {
			n++
		}
	}
	return n
}

// InvalidateByPattern removes every entry whose key matches the regular
// expression and returns the count. A malformed pattern is an error.
func (s *Store) InvalidateByPattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("ajo: invalid pattern %q: %w", pattern, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []string
	for _, k := range s.lru.Keys() {
		if re.MatchString(k) {
			matches = append(matches, k)
		}
	}

	n := 0
	for _, k := range matches {
		if s.invalidate(k) {
			n++
		}
	}
	return n, nil
}

// invalidate removes one entry and counts it. Must hold s.mu.
func (s *Store) invalidate(k string) bool {
	if !s.lru.Remove(k) {
		return false
	}
	s.invalidations.Add(1)
	s.invalWindow.add(s.now())
	s.collector.IncCounter(stats.MetricInvalidations, 1)
	s.collector.SetGauge(stats.MetricEntries, int64(s.lru.Len()))
	return true
}
