package store

import "time"

// rateWindow counts events inside a trailing window. Used for the
// per-minute eviction and invalidation rates in health reports.
type rateWindow struct {
	window time.Duration
	stamps []time.Time
}

func (w *rateWindow) add(now time.Time) {
	w.stamps = append(w.pruned(now), now)
}

func (w *rateWindow) count(now time.Time) int {
	w.stamps = w.pruned(now)
	return len(w.stamps)
}

func (w *rateWindow) pruned(now time.Time) []time.Time {
	cutoff := now.Add(-w.window)
	keep := 0
	for keep < len(w.stamps) && w.stamps[keep].Before(cutoff) {
		keep++
	}
	return w.stamps[keep:]
}

func (w *rateWindow) reset() {
	w.stamps = nil
}
