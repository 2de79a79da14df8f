package store

import "time"

// writeLimiter enforces the per-key set budget over a trailing window.
// Each key keeps its write timestamps in insertion order; slices are pruned
// lazily on that key's next write, and fully idle keys are dropped by prune.
type writeLimiter struct {
	limit  int
	window time.Duration
	stamps map[string][]time.Time
}

func newWriteLimiter(limit int, window time.Duration) *writeLimiter {
	return &writeLimiter{
		limit:  limit,
		window: window,
		stamps: make(map[string][]time.Time),
	}
}

// allow records a write at now if the key has budget left in the window.
func (l *writeLimiter) allow(key string, now time.Time) bool {
	cutoff := now.Add(-l.window)
	kept := l.stamps[key][:0]
	for _, ts := range l.stamps[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.limit {
		l.stamps[key] = kept
		return false
	}
	l.stamps[key] = append(kept, now)
	return true
}

// prune drops keys whose whole window has passed and trims the rest.
func (l *writeLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	for key, stamps := range l.stamps {
		keep := 0
		for keep < len(stamps) && !stamps[keep].After(cutoff) {
			keep++
		}
		switch {
		case keep == len(stamps):
			delete(l.stamps, key)
		case keep > 0:
			l.stamps[key] = append([]time.Time(nil), stamps[keep:]...)
		}
	}
}

func (l *writeLimiter) reset() {
	l.stamps = make(map[string][]time.Time)
}
