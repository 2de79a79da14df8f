package ajo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the cache and its resilience layer. New copies the config;
// later mutation has no effect.
type Config struct {
	// DefaultTTL applies to entries written without an explicit TTL.
	// Zero means such entries never expire.
	DefaultTTL time.Duration

	// MaxEntries bounds the cache; inserting past it evicts the entry
	// with the oldest access.
	MaxEntries int

	// MaxPayloadBytes bounds the serialized size of a value.
	MaxPayloadBytes int

	// StaleWhileRevalidate keeps expired entries servable for one extra
	// TTL window while a background refresh runs.
	StaleWhileRevalidate bool

	// EnableMetrics publishes to the configured stats collector. The
	// internal counters behind Metrics run regardless.
	EnableMetrics bool

	// WriteLimit and WriteWindow bound accepted sets per key: at most
	// WriteLimit writes in any trailing WriteWindow.
	WriteLimit  int
	WriteWindow time.Duration

	// SweepInterval runs a background sweep of expired entries when
	// positive. Zero leaves removal to lazy expiry on access.
	SweepInterval time.Duration

	Breaker    BreakerConfig
	Retry      RetryConfig
	Thresholds HealthThresholds
}

// BreakerConfig tunes the per-operation circuit breakers.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failed operations
	// that opens a breaker.
	FailureThreshold int

	// RecoveryTimeout is how long an open breaker rejects calls before
	// admitting a probe.
	RecoveryTimeout time.Duration
}

// RetryConfig tunes backend call retries.
type RetryConfig struct {
	// MaxRetries is the total number of attempts per call.
	MaxRetries int

	// InitialDelay is the wait before the second attempt; each further
	// wait is scaled by BackoffMultiplier.
	InitialDelay      time.Duration
	BackoffMultiplier float64

	// TransientCodes lists backend error codes treated as retryable.
	// Nil keeps the default set.
	TransientCodes []string
}

// HealthThresholds define when Health reports unhealthy. Zero fields fall
// back to the production values; a negative field disables that check.
type HealthThresholds struct {
	// MinHitRate flags hit rates below it, once there are accesses.
	MinHitRate float64

	// MaxFillRatio flags entry counts above this share of capacity.
	MaxFillRatio float64

	// MaxEvictionsPerMin and MaxInvalidationsPerMin flag churn above
	// these trailing per-minute rates.
	MaxEvictionsPerMin     int
	MaxInvalidationsPerMin int
}

func (t HealthThresholds) withDefaults() HealthThresholds {
	if t.MinHitRate == 0 {
		t.MinHitRate = 0.70
	}
	if t.MaxFillRatio == 0 {
		t.MaxFillRatio = 0.90
	}
	if t.MaxEvictionsPerMin == 0 {
		t.MaxEvictionsPerMin = 100
	}
	if t.MaxInvalidationsPerMin == 0 {
		t.MaxInvalidationsPerMin = 300
	}
	return t
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return ProductionConfig()
}

// ProductionConfig returns the tuning for production dashboards: 5 minute
// TTLs, stale serving on, metrics published.
func ProductionConfig() Config {
	return Config{
		DefaultTTL:           5 * time.Minute,
		MaxEntries:           1000,
		MaxPayloadBytes:      1 << 20,
		StaleWhileRevalidate: true,
		EnableMetrics:        true,
		WriteLimit:           100,
		WriteWindow:          60 * time.Second,
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialDelay:      time.Second,
			BackoffMultiplier: 2,
		},
		Thresholds: HealthThresholds{}.withDefaults(),
	}
}

// StagingConfig returns the production tuning scaled down: shorter TTLs
// and a smaller cache.
func StagingConfig() Config {
	cfg := ProductionConfig()
	cfg.DefaultTTL = 2 * time.Minute
	cfg.MaxEntries = 500
	return cfg
}

// DevelopmentConfig returns a tuning for local iteration: short TTLs and
// a breaker that recovers quickly.
func DevelopmentConfig() Config {
	cfg := ProductionConfig()
	cfg.DefaultTTL = 30 * time.Second
	cfg.MaxEntries = 200
	cfg.Breaker.RecoveryTimeout = 10 * time.Second
	cfg.Retry.InitialDelay = 250 * time.Millisecond
	return cfg
}

// TestConfig returns a deterministic tuning for tests: one second TTLs,
// stale serving off so expiry is a hard cutoff, metrics unpublished, and
// short breaker and retry waits.
func TestConfig() Config {
	cfg := ProductionConfig()
	cfg.DefaultTTL = time.Second
	cfg.MaxEntries = 100
	cfg.StaleWhileRevalidate = false
	cfg.EnableMetrics = false
	cfg.Breaker.RecoveryTimeout = time.Second
	cfg.Retry.InitialDelay = 10 * time.Millisecond
	return cfg
}

// PresetConfig returns the preset for the named environment: development,
// staging, production or test.
func PresetConfig(env string) (Config, error) {
	switch env {
	case "development":
		return DevelopmentConfig(), nil
	case "staging":
		return StagingConfig(), nil
	case "production":
		return ProductionConfig(), nil
	case "test":
		return TestConfig(), nil
	default:
		return Config{}, fmt.Errorf("ajo: unknown environment %q", env)
	}
}

// fileConfig mirrors Config for YAML, with durations as strings.
type fileConfig struct {
	Environment          string `yaml:"environment"`
	DefaultTTL           string `yaml:"default_ttl"`
	MaxEntries           int    `yaml:"max_entries"`
	MaxPayloadBytes      int    `yaml:"max_payload_bytes"`
	StaleWhileRevalidate *bool  `yaml:"stale_while_revalidate"`
	EnableMetrics        *bool  `yaml:"enable_metrics"`
	WriteLimit           int    `yaml:"write_limit"`
	WriteWindow          string `yaml:"write_window"`
	SweepInterval        string `yaml:"sweep_interval"`

	Breaker struct {
		FailureThreshold int    `yaml:"failure_threshold"`
		RecoveryTimeout  string `yaml:"recovery_timeout"`
	} `yaml:"breaker"`

	Retry struct {
		MaxRetries        int      `yaml:"max_retries"`
		InitialDelay      string   `yaml:"initial_delay"`
		BackoffMultiplier float64  `yaml:"backoff_multiplier"`
		TransientCodes    []string `yaml:"transient_codes"`
	} `yaml:"retry"`

	Thresholds struct {
		MinHitRate             float64 `yaml:"min_hit_rate"`
		MaxFillRatio           float64 `yaml:"max_fill_ratio"`
		MaxEvictionsPerMin     int     `yaml:"max_evictions_per_min"`
		MaxInvalidationsPerMin int     `yaml:"max_invalidations_per_min"`
	} `yaml:"thresholds"`
}

// LoadConfig reads a YAML config file. The file's environment field picks
// the preset used as the baseline (production when absent); any other set
// field overrides the preset value.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("ajo: reading config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("ajo: parsing config: %w", err)
	}

	cfg := ProductionConfig()
	if fc.Environment != "" {
		cfg, err = PresetConfig(fc.Environment)
		if err != nil {
			return Config{}, err
		}
	}

	if fc.DefaultTTL != "" {
		if cfg.DefaultTTL, err = parseDuration("default_ttl", fc.DefaultTTL); err != nil {
			return Config{}, err
		}
	}
	if fc.MaxEntries > 0 {
		cfg.MaxEntries = fc.MaxEntries
	}
	if fc.MaxPayloadBytes > 0 {
		cfg.MaxPayloadBytes = fc.MaxPayloadBytes
	}
	if fc.StaleWhileRevalidate != nil {
		cfg.StaleWhileRevalidate = *fc.StaleWhileRevalidate
	}
	if fc.EnableMetrics != nil {
		cfg.EnableMetrics = *fc.EnableMetrics
	}
	if fc.WriteLimit > 0 {
		cfg.WriteLimit = fc.WriteLimit
	}
	if fc.WriteWindow != "" {
		if cfg.WriteWindow, err = parseDuration("write_window", fc.WriteWindow); err != nil {
			return Config{}, err
		}
	}
	if fc.SweepInterval != "" {
		if cfg.SweepInterval, err = parseDuration("sweep_interval", fc.SweepInterval); err != nil {
			return Config{}, err
		}
	}

	if fc.Breaker.FailureThreshold > 0 {
		cfg.Breaker.FailureThreshold = fc.Breaker.FailureThreshold
	}
	if fc.Breaker.RecoveryTimeout != "" {
		if cfg.Breaker.RecoveryTimeout, err = parseDuration("breaker.recovery_timeout", fc.Breaker.RecoveryTimeout); err != nil {
			return Config{}, err
		}
	}

	if fc.Retry.MaxRetries > 0 {
		cfg.Retry.MaxRetries = fc.Retry.MaxRetries
	}
	if fc.Retry.InitialDelay != "" {
		if cfg.Retry.InitialDelay, err = parseDuration("retry.initial_delay", fc.Retry.InitialDelay); err != nil {
			return Config{}, err
		}
	}
	if fc.Retry.BackoffMultiplier > 0 {
		cfg.Retry.BackoffMultiplier = fc.Retry.BackoffMultiplier
	}
	if fc.Retry.TransientCodes != nil {
		cfg.Retry.TransientCodes = fc.Retry.TransientCodes
	}

	if fc.Thresholds.MinHitRate != 0 {
		cfg.Thresholds.MinHitRate = fc.Thresholds.MinHitRate
	}
	if fc.Thresholds.MaxFillRatio != 0 {
		cfg.Thresholds.MaxFillRatio = fc.Thresholds.MaxFillRatio
	}
	if fc.Thresholds.MaxEvictionsPerMin != 0 {
		cfg.Thresholds.MaxEvictionsPerMin = fc.Thresholds.MaxEvictionsPerMin
	}
	if fc.Thresholds.MaxInvalidationsPerMin != 0 {
		cfg.Thresholds.MaxInvalidationsPerMin = fc.Thresholds.MaxInvalidationsPerMin
	}

	return cfg, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("ajo: parsing %s: %w", field, err)
	}
	return d, nil
}
