// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Cache metrics.
	MetricHits          = "ajo_cache_hits_total"
	MetricMisses        = "ajo_cache_misses_total"
	MetricStaleServes   = "ajo_cache_stale_serves_total"
	MetricEvictions     = "ajo_cache_evictions_total"
	MetricInvalidations = "ajo_cache_invalidations_total"
	MetricExpirations   = "ajo_cache_expirations_total"
	MetricRateLimited   = "ajo_cache_rate_limited_total"
	MetricEntries       = "ajo_cache_entries"

	// Fetch pipeline metrics.
	MetricFetches       = "ajo_fetches_total"
	MetricFetchAttempts = "ajo_fetch_attempts_total"
	MetricFetchDuration = "ajo_fetch_duration_seconds"
	MetricRefreshes     = "ajo_background_refreshes_total"
	MetricRefreshErrors = "ajo_background_refresh_errors_total"

	// Circuit breaker metrics.
	MetricBreakerOpens      = "ajo_breaker_opens_total"
	MetricBreakerRejections = "ajo_breaker_rejections_total"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
