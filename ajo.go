// Package ajo is the client-side data layer for a rotating savings (ajo)
// dashboard backed by Soroban RPC. It provides an in-memory cache with
// TTLs and stale-while-revalidate, tag-based invalidation, backend fetches
// wrapped in retries and circuit breakers, and a health snapshot for
// monitoring surfaces.
//
// Example usage:
//
//	cache, err := ajo.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	group, err := cache.Fetch(ctx, ajo.GroupKey(7), func(ctx context.Context) (any, error) {
//	    return rpc.GetGroup(ctx, 7)
//	}, ajo.WithTags(ajo.TagGroups, ajo.TagGroup(7)))
//	if err != nil {
//	    log.Fatal(err)
//	}
package ajo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/soma-enyi/soroban-ajo/internal/breaker"
	"github.com/soma-enyi/soroban-ajo/internal/retry"
	"github.com/soma-enyi/soroban-ajo/internal/stats"
	"github.com/soma-enyi/soroban-ajo/internal/store"
)

// defaultOperation is the breaker and retry accounting name Fetch uses
// unless WithOperation overrides it.
const defaultOperation = "fetch"

// Fetcher loads a value from the backend. Fetch and Execute wrap it in
// the retry policy and circuit breaker.
type Fetcher func(ctx context.Context) (any, error)

// EntryOption adjusts a single Fetch or Set call.
type EntryOption func(*entryOptions)

type entryOptions struct {
	ttl     time.Duration
	tags    []string
	version string
	etag    string
	force   bool
	op      string
}

func applyEntryOptions(opts []EntryOption) entryOptions {
	eo := entryOptions{op: defaultOperation}
	for _, opt := range opts {
		opt(&eo)
	}
	return eo
}

// WithTTL sets the entry's TTL. Zero inherits the configured default; a
// negative TTL pins the entry.
func WithTTL(d time.Duration) EntryOption {
	return func(o *entryOptions) { o.ttl = d }
}

// WithTags attaches invalidation tags to the entry.
func WithTags(tags ...string) EntryOption {
	return func(o *entryOptions) { o.tags = append(o.tags, tags...) }
}

// WithVersion stamps the entry for InvalidateByVersion.
func WithVersion(v string) EntryOption {
	return func(o *entryOptions) { o.version = v }
}

// WithETag records the backend's entity tag on the entry.
func WithETag(etag string) EntryOption {
	return func(o *entryOptions) { o.etag = etag }
}

// WithForceRefresh makes Fetch bypass the cache and hit the backend.
func WithForceRefresh() EntryOption {
	return func(o *entryOptions) { o.force = true }
}

// WithOperation names the breaker and retry accounting bucket for this
// fetch. Calls with different names fail independently.
func WithOperation(name string) EntryOption {
	return func(o *entryOptions) {
		if name != "" {
			o.op = name
		}
	}
}

// RetryOption adjusts a single Execute call.
type RetryOption func(*retry.CallConfig)

// WithMaxRetries overrides the total attempt count for one call.
func WithMaxRetries(n int) RetryOption {
	return func(c *retry.CallConfig) { c.MaxRetries = n }
}

// WithInitialDelay overrides the first backoff delay for one call.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(c *retry.CallConfig) { c.InitialDelay = d }
}

// WithBackoffMultiplier overrides the backoff growth for one call.
func WithBackoffMultiplier(m float64) RetryOption {
	return func(c *retry.CallConfig) { c.BackoffMultiplier = m }
}

// WithShouldRetry replaces the retryability classification for one call.
func WithShouldRetry(fn func(error) bool) RetryOption {
	return func(c *retry.CallConfig) { c.ShouldRetry = fn }
}

// Cache is the dashboard's data layer. A Cache is safe for concurrent use
// by multiple goroutines.
type Cache struct {
	cfg      Config
	store    *store.Store
	breakers *breaker.Group
	retrier  *retry.Executor
	stats    stats.Collector
	logger   *zap.Logger

	flight    *singleflight.Group // nil unless request coalescing is on
	sweepStop chan struct{}
	bg        sync.WaitGroup
	closed    atomic.Bool
}

// New creates a new Cache with the given options.
// If no options are provided, the production preset is used.
func New(opts ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}

	cfg := o.cfg
	cfg.Thresholds = cfg.Thresholds.withDefaults()

	collector := o.stats
	if !cfg.EnableMetrics {
		collector = stats.NewNoop()
	}

	st, err := store.New(store.Config{
		MaxEntries:           cfg.MaxEntries,
		DefaultTTL:           cfg.DefaultTTL,
		MaxPayloadBytes:      cfg.MaxPayloadBytes,
		StaleWhileRevalidate: cfg.StaleWhileRevalidate,
		WriteLimit:           cfg.WriteLimit,
		WriteWindow:          cfg.WriteWindow,
		ExtraSensitive:       o.sensitive,
	}, o.logger, collector)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	breakers := breaker.NewGroup(breaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
	}, o.logger, collector)

	c := &Cache{
		cfg:      cfg,
		store:    st,
		breakers: breakers,
		retrier: retry.New(retry.Config{
			MaxRetries:        cfg.Retry.MaxRetries,
			InitialDelay:      cfg.Retry.InitialDelay,
			BackoffMultiplier: cfg.Retry.BackoffMultiplier,
			TransientCodes:    cfg.Retry.TransientCodes,
		}, breakers, o.logger, collector),
		stats:  collector,
		logger: o.logger,
	}
	if o.coalesce {
		c.flight = new(singleflight.Group)
	}
	if cfg.SweepInterval > 0 {
		c.startSweeper(cfg.SweepInterval)
	}

	c.logger.Debug("cache initialized",
		zap.Int("maxEntries", cfg.MaxEntries),
		zap.Duration("defaultTTL", cfg.DefaultTTL),
		zap.Bool("staleWhileRevalidate", cfg.StaleWhileRevalidate),
	)
	return c, nil
}

// Fetch returns the cached value for key, going to the backend on a miss.
// Fresh hits return immediately. Stale hits return the cached value and
// start one background refresh. Misses (and WithForceRefresh) run fetch
// under the retry policy and circuit breaker, cache the result, and return
// it. Fetch errors pass through unwrapped and are never cached.
func (c *Cache) Fetch(ctx context.Context, key string, fetch Fetcher, opts ...EntryOption) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if fetch == nil {
		return nil, ErrNoFetcher
	}
	eo := applyEntryOptions(opts)

	if !eo.force {
		if v, ok := c.store.Get(key); ok {
			if c.store.ClaimRevalidation(key) {
				c.startRefresh(ctx, key, fetch, eo)
			}
			return v, nil
		}
	}

	do := func() (any, error) {
		v, err := c.execute(ctx, eo.op, fetch, retry.CallConfig{})
		if err != nil {
			return nil, err
		}
		if err := c.set(key, v, eo); err != nil {
			return nil, err
		}
		return v, nil
	}

	if c.flight != nil && !eo.force {
		v, err, _ := c.flight.Do(key, do)
		return v, err
	}
	return do()
}

// Execute runs fn for the named operation under the retry policy and
// circuit breaker, without touching the cache. The final error is
// returned unwrapped.
func (c *Cache) Execute(ctx context.Context, operation string, fn Fetcher, opts ...RetryOption) (any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if operation == "" {
		operation = defaultOperation
	}
	var call retry.CallConfig
	for _, opt := range opts {
		opt(&call)
	}
	return c.execute(ctx, operation, fn, call)
}

// startRefresh revalidates key in the background. The refresh survives the
// caller's cancellation; its claim is released when it finishes, success
// or not, and failures are logged rather than cached.
func (c *Cache) startRefresh(ctx context.Context, key string, fetch Fetcher, eo entryOptions) {
	bgCtx := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		defer c.store.CompleteRevalidation(key)

		v, err := c.execute(bgCtx, eo.op, fetch, retry.CallConfig{})
		if err != nil {
			c.stats.IncCounter(stats.MetricRefreshErrors, 1)
			c.logger.Warn("background refresh failed",
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}
		if err := c.set(key, v, eo); err != nil {
			c.stats.IncCounter(stats.MetricRefreshErrors, 1)
			c.logger.Warn("background refresh not cached",
				zap.String("key", key),
				zap.Error(err),
			)
			return
		}
		c.stats.IncCounter(stats.MetricRefreshes, 1)
	}()
}

func (c *Cache) execute(ctx context.Context, operation string, fn Fetcher, call retry.CallConfig) (any, error) {
	c.stats.IncCounter(stats.MetricFetches, 1)
	return c.retrier.Do(ctx, operation, retry.Operation(fn), call)
}

// Get returns the cached value for key. Stale values are returned like
// fresh ones; pair with Fetch to refresh them.
func (c *Cache) Get(key string) (any, bool) {
	if c.closed.Load() {
		return nil, false
	}
	return c.store.Get(key)
}

// GetMany returns the cached values found for keys. Missing keys are
// absent from the result.
func (c *Cache) GetMany(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// Set stores value under key. The key is sanitized, then both key and
// value are validated; see ErrInvalidKey, ErrPayloadTooLarge,
// ErrSensitiveData and ErrRateLimited.
func (c *Cache) Set(key string, value any, opts ...EntryOption) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.set(key, value, applyEntryOptions(opts))
}

// SetMany stores each value under its key, stopping at the first error.
func (c *Cache) SetMany(values map[string]any, opts ...EntryOption) error {
	if c.closed.Load() {
		return ErrClosed
	}
	eo := applyEntryOptions(opts)
	for k, v := range values {
		if err := c.set(k, v, eo); err != nil {
			return fmt.Errorf("setting %q: %w", k, err)
		}
	}
	return nil
}

func (c *Cache) set(key string, value any, eo entryOptions) error {
	return c.store.Set(key, value, store.SetOptions{
		TTL:     eo.ttl,
		Tags:    eo.tags,
		Version: eo.version,
		ETag:    eo.etag,
	})
}

// Has reports whether a servable entry exists for key, without counting a
// hit or a miss and without refreshing its recency.
func (c *Cache) Has(key string) bool {
	if c.closed.Load() {
		return false
	}
	return c.store.Has(key)
}

// ShouldCache reports whether key and value would be accepted by Set. It
// runs the same validation without writing or spending rate budget.
func (c *Cache) ShouldCache(key string, value any) error {
	return c.store.Check(key, value)
}

// Invalidate removes key and reports whether it existed.
func (c *Cache) Invalidate(key string) bool {
	return c.store.Invalidate(key)
}

// InvalidateMany removes the given keys and returns how many existed.
func (c *Cache) InvalidateMany(keys []string) int {
	return c.store.InvalidateMany(keys)
}

// InvalidateByTag removes every entry carrying tag and returns the count.
func (c *Cache) InvalidateByTag(tag string) int {
	return c.store.InvalidateByTag(tag)
}

// InvalidateByVersion removes every entry with the exact version and
// returns the count.
func (c *Cache) InvalidateByVersion(version string) int {
	return c.store.InvalidateByVersion(version)
}

// InvalidateByPattern removes every entry whose key matches the regular
// expression and returns the count.
func (c *Cache) InvalidateByPattern(pattern string) (int, error) {
	return c.store.InvalidateByPattern(pattern)
}

// Clear removes every entry and resets the rate limiter. Metrics are
// preserved.
func (c *Cache) Clear() {
	c.store.Clear()
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Cap returns the configured maximum entry count.
func (c *Cache) Cap() int {
	return c.store.Cap()
}

// Metrics returns a snapshot of the cache counters.
func (c *Cache) Metrics() Metrics {
	cs := c.store.Counters()
	return Metrics{
		Hits:          cs.Hits,
		Misses:        cs.Misses,
		Evictions:     cs.Evictions,
		Invalidations: cs.Invalidations,
		StaleServes:   cs.StaleServes,
		Expirations:   cs.Expirations,
		RateLimited:   cs.RateLimited,
	}
}

// ResetMetrics zeroes the counters and the trailing rate windows.
func (c *Cache) ResetMetrics() {
	c.store.ResetCounters()
}

// PendingRevalidations returns the keys served stale and awaiting a
// background refresh, sorted.
func (c *Cache) PendingRevalidations() []string {
	return c.store.PendingRevalidations()
}

// BreakerStates maps operation names to their breaker state. Operations
// appear once something has called them.
func (c *Cache) BreakerStates() map[string]string {
	states := c.breakers.States()
	out := make(map[string]string, len(states))
	for name, s := range states {
		out[name] = s.String()
	}
	return out
}

// ResetBreakers returns every circuit breaker to closed.
func (c *Cache) ResetBreakers() {
	c.breakers.ResetAll()
}

// Sweep removes expired entries now and returns how many were dropped.
// With SweepInterval configured this also runs in the background.
func (c *Cache) Sweep() int {
	return c.store.Sweep()
}

func (c *Cache) startSweeper(interval time.Duration) {
	c.sweepStop = make(chan struct{})
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-c.sweepStop:
				return
			case <-t.C:
				c.store.Sweep()
			}
		}
	}()
}

// Close stops the sweeper, waits for in-flight background refreshes, and
// marks the cache closed. After Close, the cache should not be used.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if c.sweepStop != nil {
		close(c.sweepStop)
	}
	c.bg.Wait()
	return nil
}
