package ajo

import (
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/soma-enyi/soroban-ajo/internal/stats"
	logstats "github.com/soma-enyi/soroban-ajo/internal/stats/logger"
	promstats "github.com/soma-enyi/soroban-ajo/internal/stats/prometheus"
)

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	cfg       Config
	stats     stats.Collector
	logger    *zap.Logger
	coalesce  bool
	sensitive []*regexp.Regexp
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		cfg:    DefaultConfig(),
		stats:  stats.NewNoop(),
		logger: zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithConfig replaces the whole configuration.
// If not set, the production preset is used.
func WithConfig(cfg Config) Option {
	return optionFunc(func(o *options) {
		o.cfg = cfg
	})
}

// WithPreset applies the configuration preset for the named environment.
// Valid names are development, staging, production and test.
func WithPreset(env string) (Option, error) {
	cfg, err := PresetConfig(env)
	if err != nil {
		return nil, err
	}
	return WithConfig(cfg), nil
}

// WithConfigFile loads the configuration from a YAML file.
// This is the recommended way to configure a deployed dashboard.
func WithConfigFile(path string) (Option, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return WithConfig(cfg), nil
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithPrometheus publishes metrics to reg, or the default registerer when
// reg is nil, and turns metric publishing on.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(o *options) {
		o.stats = promstats.New(reg)
		o.cfg.EnableMetrics = true
	})
}

// WithLoggedStats publishes metrics through the given zap logger at debug
// level. Meant for development.
func WithLoggedStats(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.stats = logstats.New(l)
		o.cfg.EnableMetrics = true
	})
}

// WithRequestCoalescing makes concurrent Fetch misses of the same key
// share one backend call. Off by default: with it off, every miss is a
// distinct fetch, which keeps fetch counts predictable.
func WithRequestCoalescing() Option {
	return optionFunc(func(o *options) {
		o.coalesce = true
	})
}

// WithSweepInterval runs a background sweep of expired entries at the
// given interval. Equivalent to setting Config.SweepInterval.
func WithSweepInterval(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.cfg.SweepInterval = d
	})
}

// WithSensitivePattern adds a pattern to the sensitive-payload scan.
// Values matching it are rejected with ErrSensitiveData.
func WithSensitivePattern(re *regexp.Regexp) Option {
	return optionFunc(func(o *options) {
		o.sensitive = append(o.sensitive, re)
	})
}
