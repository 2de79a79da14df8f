package ajo

import (
	"fmt"
	"time"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is a point-in-time view of the cache for a monitoring surface.
type Health struct {
	// Status is StatusHealthy or StatusUnhealthy; Issues explains the
	// latter.
	Status string
	Issues []string

	Entries []EntryInfo
	Tags    []TagInfo

	Metrics Metrics
	HitRate float64

	Size     int
	Capacity int

	// EvictionsPerMin and InvalidationsPerMin are trailing-minute rates,
	// unlike the lifetime counters in Metrics.
	EvictionsPerMin     int
	InvalidationsPerMin int

	// Breakers maps operation names to breaker states.
	Breakers map[string]string

	GeneratedAt time.Time
}

// EntryInfo describes one cache entry in a health snapshot.
type EntryInfo struct {
	Key     string
	Age     time.Duration
	TTL     time.Duration
	Version string
	ETag    string
	Size    int
}

// TagInfo lists the keys indexed under one tag.
type TagInfo struct {
	Tag  string
	Keys []string
}

// Health returns the current snapshot. Thresholds come from the
// configuration; see HealthThresholds.
func (c *Cache) Health() Health {
	m := c.Metrics()
	entries, tags := c.store.Snapshot()

	h := Health{
		Status:              StatusHealthy,
		Entries:             make([]EntryInfo, len(entries)),
		Tags:                make([]TagInfo, len(tags)),
		Metrics:             m,
		HitRate:             m.HitRate(),
		Size:                c.store.Len(),
		Capacity:            c.store.Cap(),
		EvictionsPerMin:     c.store.EvictionRate(),
		InvalidationsPerMin: c.store.InvalidationRate(),
		Breakers:            c.BreakerStates(),
		GeneratedAt:         time.Now(),
	}
	for i, e := range entries {
		h.Entries[i] = EntryInfo{
			Key:     e.Key,
			Age:     e.Age,
			TTL:     e.TTL,
			Version: e.Version,
			ETag:    e.ETag,
			Size:    e.Size,
		}
	}
	for i, tg := range tags {
		h.Tags[i] = TagInfo{Tag: tg.Tag, Keys: tg.Keys}
	}

	th := c.cfg.Thresholds
	if accesses := m.Hits + m.Misses; accesses > 0 && th.MinHitRate > 0 && h.HitRate < th.MinHitRate {
		h.Issues = append(h.Issues, fmt.Sprintf("hit rate %.2f below %.2f", h.HitRate, th.MinHitRate))
	}
	if th.MaxFillRatio > 0 && float64(h.Size) > th.MaxFillRatio*float64(h.Capacity) {
		h.Issues = append(h.Issues, fmt.Sprintf("%d of %d entries exceeds %.0f%% capacity", h.Size, h.Capacity, th.MaxFillRatio*100))
	}
	if th.MaxEvictionsPerMin > 0 && h.EvictionsPerMin > th.MaxEvictionsPerMin {
		h.Issues = append(h.Issues, fmt.Sprintf("%d evictions/min above %d", h.EvictionsPerMin, th.MaxEvictionsPerMin))
	}
	if th.MaxInvalidationsPerMin > 0 && h.InvalidationsPerMin > th.MaxInvalidationsPerMin {
		h.Issues = append(h.Issues, fmt.Sprintf("%d invalidations/min above %d", h.InvalidationsPerMin, th.MaxInvalidationsPerMin))
	}
	if len(h.Issues) > 0 {
		h.Status = StatusUnhealthy
	}
	return h
}
