// Package store implements the in-memory cache behind the dashboard data
// layer: a strict LRU bounded by entry count, per-entry TTLs with a
// stale-while-revalidate window, a tag index for bulk invalidation, and a
// per-key write rate limit.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/soma-enyi/soroban-ajo/internal/guard"
	"github.com/soma-enyi/soroban-ajo/internal/stats"
)

// ErrRateLimited indicates a key exceeded its set budget for the window.
var ErrRateLimited = errors.New("ajo: write rate limit exceeded")

// Config holds store tuning. Zero fields fall back to defaults.
type Config struct {
	// MaxEntries bounds the cache; inserting past it evicts the entry with
	// the oldest access.
	MaxEntries int

	// DefaultTTL applies to entries written without an explicit TTL.
	// Zero means such entries never expire.
	DefaultTTL time.Duration

	// MaxPayloadBytes bounds the serialized size of a value.
	MaxPayloadBytes int

	// MaxKeyLength bounds key length after sanitization.
	MaxKeyLength int

	// StaleWhileRevalidate keeps entries servable for a second TTL window
	// past expiry while a background refresh is pending.
	StaleWhileRevalidate bool

	// WriteLimit and WriteWindow bound sets per key: at most WriteLimit
	// accepted writes in any trailing WriteWindow.
	WriteLimit  int
	WriteWindow time.Duration

	// ExtraSensitive extends the sensitive-payload scan.
	ExtraSensitive []*regexp.Regexp
}

func (c Config) withDefaults() Config {
	if c.MaxEntries <= 0 {
		c.MaxEntries = 1000
	}
	if c.WriteLimit <= 0 {
		c.WriteLimit = 100
	}
	if c.WriteWindow <= 0 {
		c.WriteWindow = 60 * time.Second
	}
	return c
}

// SetOptions carries per-entry metadata for a write. A zero TTL inherits
// the store default; a negative TTL pins the entry.
type SetOptions struct {
	TTL     time.Duration
	Tags    []string
	Version string
	ETag    string
}

// Store is the in-memory cache. Safe for concurrent use.
type Store struct {
	cfg       Config
	guard     *guard.Guard
	logger    *zap.Logger
	collector stats.Collector

	mu      sync.Mutex
	lru     *lru.Cache[string, *Entry]
	tags    map[string]map[string]struct{}
	reval   map[string]bool // false = queued, true = refresh in flight
	limiter *writeLimiter

	evictWindow rateWindow
	invalWindow rateWindow

	hits          atomic.Int64
	misses        atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64
	staleServes   atomic.Int64
	expirations   atomic.Int64
	rateLimited   atomic.Int64

	now func() time.Time
}

// New creates an empty store.
func New(cfg Config, logger *zap.Logger, collector stats.Collector) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	cfg = cfg.withDefaults()

	s := &Store{
		cfg:         cfg,
		guard:       guard.New(cfg.MaxKeyLength, cfg.MaxPayloadBytes, cfg.ExtraSensitive...),
		logger:      logger,
		collector:   collector,
		tags:        make(map[string]map[string]struct{}),
		reval:       make(map[string]bool),
		limiter:     newWriteLimiter(cfg.WriteLimit, cfg.WriteWindow),
		evictWindow: rateWindow{window: time.Minute},
		invalWindow: rateWindow{window: time.Minute},
		now:         time.Now,
	}

	c, err := lru.NewWithEvict[string, *Entry](cfg.MaxEntries, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	s.lru = c
	return s, nil
}

// onEvict keeps the tag index and revalidation queue consistent with the
// entry set. Runs inside lru mutations, which all happen under s.mu; it
// must not lock.
func (s *Store) onEvict(key string, e *Entry) {
	s.removeFromTags(key, e.Tags)
	delete(s.reval, key)
}

// admit sanitizes and validates a prospective write, returning the storage
// key and serialized size.
func (s *Store) admit(key string, value any) (string, int, error) {
	k := guard.SanitizeKey(key)
	if err := s.guard.ValidateKey(k); err != nil {
		return "", 0, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return "", 0, fmt.Errorf("ajo: encoding value for %q: %w", k, err)
	}
	if err := s.guard.CheckPayload(payload); err != nil {
		return "", 0, err
	}
	return k, len(payload), nil
}

// Check runs the write validation without touching the store. It reports
// what Set would reject: invalid keys, oversized payloads, sensitive data.
func (s *Store) Check(key string, value any) error {
	_, _, err := s.admit(key, value)
	return err
}

// Set stores value under key. The key is sanitized before storage;
// lookups apply the same sanitization, so callers keep using their
// original literal key.
func (s *Store) Set(key string, value any, opts SetOptions) error {
	k, size, err := s.admit(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.limiter.allow(k, now) {
		s.rateLimited.Add(1)
		s.collector.IncCounter(stats.MetricRateLimited, 1)
		return fmt.Errorf("%w: key %q: more than %d sets in %s",
			ErrRateLimited, k, s.cfg.WriteLimit, s.cfg.WriteWindow)
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = s.cfg.DefaultTTL
	}

	// Replacing an entry re-tags it; a fresh write also supersedes any
	// pending refresh.
	if old, ok := s.lru.Peek(k); ok {
		s.removeFromTags(k, old.Tags)
	}
	delete(s.reval, k)

	e := &Entry{
		Key:          k,
		Value:        value,
		Size:         size,
		CreatedAt:    now,
		LastAccessed: now,
		TTL:          ttl,
		Tags:         append([]string(nil), opts.Tags...),
		Version:      opts.Version,
		ETag:         opts.ETag,
	}
	if s.lru.Add(k, e) {
		s.evictions.Add(1)
		s.evictWindow.add(now)
		s.collector.IncCounter(stats.MetricEvictions, 1)
	}
	s.addToTags(k, e.Tags)
	s.collector.SetGauge(stats.MetricEntries, int64(s.lru.Len()))
	return nil
}

// Get returns the value for key. Fresh and stale entries are both served;
// a stale serve queues the key for revalidation. Entries past the serving
// window are removed and count as misses.
func (s *Store) Get(key string) (any, bool) {
	k := guard.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(k)
	if !ok {
		s.miss()
		return nil, false
	}

	now := s.now()
	if s.pastWindow(e, now) {
		s.expire(k)
		s.miss()
		return nil, false
	}

	if s.stale(e, now) {
		if _, queued := s.reval[k]; !queued {
			s.reval[k] = false
		}
		s.staleServes.Add(1)
		s.collector.IncCounter(stats.MetricStaleServes, 1)
	}

	e.LastAccessed = now
	s.hits.Add(1)
	s.collector.IncCounter(stats.MetricHits, 1)
	return e.Value, true
}

// Has reports whether a servable entry exists. Expired entries are removed
// lazily like Get, but no hit or miss is recorded and the entry's access
// time is untouched.
func (s *Store) Has(key string) bool {
	k := guard.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(k)
	if !ok {
		return false
	}
	if s.pastWindow(e, s.now()) {
		s.expire(k)
		return false
	}
	return true
}

// Stale reports whether key holds an entry currently in its
// stale-while-revalidate window. Access time is untouched.
func (s *Store) Stale(key string) bool {
	k := guard.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(k)
	if !ok {
		return false
	}
	now := s.now()
	return !s.pastWindow(e, now) && s.stale(e, now)
}

// Clear removes every entry, the tag index, the revalidation queue and the
// rate limiter state. Counters are preserved.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Purge()
	s.tags = make(map[string]map[string]struct{})
	s.reval = make(map[string]bool)
	s.limiter.reset()
	s.collector.SetGauge(stats.MetricEntries, 0)
}

// Sweep removes entries past their serving window and prunes idle
// rate-limiter slots. Returns the number of entries removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var doomed []string
	for _, k := range s.lru.Keys() {
		if e, ok := s.lru.Peek(k); ok && s.pastWindow(e, now) {
			doomed = append(doomed, k)
		}
	}
	for _, k := range doomed {
		s.expire(k)
	}
	s.limiter.prune(now)

	if len(doomed) > 0 {
		s.logger.Debug("swept expired entries", zap.Int("count", len(doomed)))
	}
	return len(doomed)
}

// Len returns the number of entries, expired ones included until they are
// touched or swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Cap returns the configured maximum entry count.
func (s *Store) Cap() int {
	return s.cfg.MaxEntries
}

// PendingRevalidations returns the keys awaiting a background refresh,
// sorted for deterministic output.
func (s *Store) PendingRevalidations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.reval))
	for k := range s.reval {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClaimRevalidation marks key's refresh as in flight. It returns false if
// the key is not queued or another refresh already claimed it.
func (s *Store) ClaimRevalidation(key string) bool {
	k := guard.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	inFlight, ok := s.reval[k]
	if !ok || inFlight {
		return false
	}
	s.reval[k] = true
	return true
}

// CompleteRevalidation removes key from the queue once its refresh is done,
// whatever the outcome.
func (s *Store) CompleteRevalidation(key string) {
	k := guard.SanitizeKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reval, k)
}

// Counters is a snapshot of the store's internal counters.
type Counters struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
	StaleServes   int64
	Expirations   int64
	RateLimited   int64
}

// Counters returns the current counter values.
func (s *Store) Counters() Counters {
	return Counters{
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		Evictions:     s.evictions.Load(),
		Invalidations: s.invalidations.Load(),
		StaleServes:   s.staleServes.Load(),
		Expirations:   s.expirations.Load(),
		RateLimited:   s.rateLimited.Load(),
	}
}

// ResetCounters zeroes the counters and the rate windows.
func (s *Store) ResetCounters() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.evictions.Store(0)
	s.invalidations.Store(0)
	s.staleServes.Store(0)
	s.expirations.Store(0)
	s.rateLimited.Store(0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictWindow.reset()
	s.invalWindow.reset()
}

// EvictionRate returns capacity evictions in the trailing minute.
func (s *Store) EvictionRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictWindow.count(s.now())
}

// InvalidationRate returns invalidations in the trailing minute.
func (s *Store) InvalidationRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalWindow.count(s.now())
}

// Snapshot returns entry and tag views for health reporting. Entries are
// ordered oldest access first; tags and their keys are sorted.
func (s *Store) Snapshot() ([]EntryInfo, []TagInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entries := make([]EntryInfo, 0, s.lru.Len())
	for _, k := range s.lru.Keys() {
		e, ok := s.lru.Peek(k)
		if !ok {
			continue
		}
		entries = append(entries, EntryInfo{
			Key:     k,
			Age:     now.Sub(e.CreatedAt),
			TTL:     e.TTL,
			Version: e.Version,
			ETag:    e.ETag,
			Size:    e.Size,
		})
	}

	tags := make([]TagInfo, 0, len(s.tags))
	for tag, set := range s.tags {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tags = append(tags, TagInfo{Tag: tag, Keys: keys})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Tag < tags[j].Tag })
	return entries, tags
}

// pastWindow reports whether e is beyond its serving window: 2x TTL with
// stale-while-revalidate, 1x without.
func (s *Store) pastWindow(e *Entry, now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	age := now.Sub(e.CreatedAt)
	if s.cfg.StaleWhileRevalidate {
		return age >= 2*e.TTL
	}
	return age >= e.TTL
}

// stale reports whether e is past its TTL but still servable.
func (s *Store) stale(e *Entry, now time.Time) bool {
	if e.TTL <= 0 || !s.cfg.StaleWhileRevalidate {
		return false
	}
	return now.Sub(e.CreatedAt) >= e.TTL
}

// expire removes a logically expired entry. Must hold s.mu.
func (s *Store) expire(k string) {
	if s.lru.Remove(k) {
		s.expirations.Add(1)
		s.collector.IncCounter(stats.MetricExpirations, 1)
		s.collector.SetGauge(stats.MetricEntries, int64(s.lru.Len()))
	}
}

func (s *Store) miss() {
	s.misses.Add(1)
	s.collector.IncCounter(stats.MetricMisses, 1)
}

func (s *Store) addToTags(key string, tags []string) {
	for _, tag := range tags {
		set, ok := s.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			s.tags[tag] = set
		}
		set[key] = struct{}{}
	}
}

func (s *Store) removeFromTags(key string, tags []string) {
	for _, tag := range tags {
		set, ok := s.tags[tag]
		if !ok {
			continue
		}
		delete(set, key)
		if len(set) == 0 {
			delete(s.tags, tag)
		}
	}
}
