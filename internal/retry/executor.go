// Package retry executes backend operations with exponential backoff and
// circuit breaking.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/soma-enyi/soroban-ajo/internal/breaker"
	"github.com/soma-enyi/soroban-ajo/internal/stats"
)

// Operation is a single attemptable backend call.
type Operation func(ctx context.Context) (any, error)

// AttemptObserver is invoked once per attempt, success or failure.
type AttemptObserver func(operation string, attempt, total int, elapsed time.Duration, err error)

// Config holds the executor defaults.
type Config struct {
	// MaxRetries is the total number of attempts per call.
	MaxRetries int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// BackoffMultiplier scales the delay after each failed attempt.
	BackoffMultiplier float64

	// TransientCodes lists backend error codes treated as retryable.
	TransientCodes []string
}

// DefaultConfig returns the standard retry tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		BackoffMultiplier: 2,
		TransientCodes:    DefaultTransientCodes,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	if c.TransientCodes == nil {
		c.TransientCodes = def.TransientCodes
	}
	return c
}

// CallConfig carries per-call overrides. Zero fields fall back to the
// executor defaults.
type CallConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	BackoffMultiplier float64

	// ShouldRetry replaces the default classification when non-nil.
	ShouldRetry func(error) bool
}

// Executor runs operations under the retry policy, consulting one circuit
// breaker per operation name.
type Executor struct {
	cfg       Config
	breakers  *breaker.Group
	logger    *zap.Logger
	collector stats.Collector
	observer  AttemptObserver
	transient map[string]struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an executor backed by the given breaker group.
func New(cfg Config, breakers *breaker.Group, logger *zap.Logger, collector stats.Collector) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	cfg = cfg.withDefaults()

	transient := make(map[string]struct{}, len(cfg.TransientCodes))
	for _, code := range cfg.TransientCodes {
		transient[code] = struct{}{}
	}

	return &Executor{
		cfg:       cfg,
		breakers:  breakers,
		logger:    logger,
		collector: collector,
		transient: transient,
		sleep:     sleepCtx,
	}
}

// SetObserver registers fn to receive a report for every attempt.
func (e *Executor) SetObserver(fn AttemptObserver) {
	e.observer = fn
}

// Do runs fn for the named operation. The breaker is consulted once at
// entry; the whole call, retries included, counts as a single operation
// for breaker accounting. The final error is returned unwrapped.
func (e *Executor) Do(ctx context.Context, operation string, fn Operation, call CallConfig) (any, error) {
	call = e.resolve(call)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := e.breakers.For(operation)
	if err := br.Allow(); err != nil {
		e.logger.Debug("circuit rejected call", zap.String("operation", operation))
		return nil, err
	}

	shouldRetry := call.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = func(err error) bool { return Retryable(err, e.transient) }
	}

	delay := call.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= call.MaxRetries; attempt++ {
		start := time.Now()
		v, err := fn(ctx)
		e.report(operation, attempt, call.MaxRetries, time.Since(start), err)

		if err == nil {
			br.RecordSuccess()
			return v, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			br.ReleaseProbe()
			return nil, ctx.Err()
		}
		if !shouldRetry(err) || attempt == call.MaxRetries {
			break
		}

		e.logger.Debug("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if serr := e.sleep(ctx, delay); serr != nil {
			br.ReleaseProbe()
			return nil, serr
		}
		delay = time.Duration(float64(delay) * call.BackoffMultiplier)
	}

	br.RecordFailure()
	return nil, lastErr
}

func (e *Executor) resolve(call CallConfig) CallConfig {
	if call.MaxRetries <= 0 {
		call.MaxRetries = e.cfg.MaxRetries
	}
	if call.InitialDelay <= 0 {
		call.InitialDelay = e.cfg.InitialDelay
	}
	if call.BackoffMultiplier <= 0 {
		call.BackoffMultiplier = e.cfg.BackoffMultiplier
	}
	return call
}

func (e *Executor) report(operation string, attempt, total int, elapsed time.Duration, err error) {
	e.collector.IncCounter(stats.MetricFetchAttempts, 1)
	e.collector.ObserveHistogram(stats.MetricFetchDuration, elapsed.Seconds())
	if e.observer != nil {
		e.observer(operation, attempt, total, elapsed, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
