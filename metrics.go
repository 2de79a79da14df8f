package ajo

// Metrics is a point-in-time snapshot of the cache counters. Counters
// accumulate from creation, or from the last ResetMetrics.
type Metrics struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
	StaleServes   int64
	Expirations   int64
	RateLimited   int64
}

// HitRate returns hits / (hits + misses), or 0 before any access.
func (m Metrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}
