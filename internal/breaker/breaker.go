// Package breaker implements a circuit breaker for backend operations.
package breaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soma-enyi/soroban-ajo/internal/stats"
)

// ErrOpen indicates the breaker is rejecting calls.
var ErrOpen = errors.New("ajo: circuit breaker open")

// State of a breaker.
type State int32

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds breaker tuning.
type Config struct {
	// FailureThreshold is the number of consecutive failed operations that
	// opens the breaker.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays open before admitting
	// a probe.
	RecoveryTimeout time.Duration
}

// DefaultConfig returns the standard breaker tuning.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = def.RecoveryTimeout
	}
	return c
}

// Breaker tracks consecutive failures for one named operation.
// Every operation admitted by Allow must report exactly one RecordSuccess
// or RecordFailure.
type Breaker struct {
	name      string
	cfg       Config
	logger    *zap.Logger
	collector stats.Collector

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	probing     bool

	now func() time.Time
}

// New creates a closed breaker for the named operation.
func New(name string, cfg Config, logger *zap.Logger, collector stats.Collector) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Breaker{
		name:      name,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		collector: collector,
		now:       time.Now,
	}
}

// Allow reports whether a call may proceed. While open it returns ErrOpen
// until the recovery timeout has elapsed; the first Allow after that moves
// the breaker to half-open and admits exactly one probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.lastFailure) > b.cfg.RecoveryTimeout {
			b.transition(StateHalfOpen)
			b.probing = true
			return nil
		}
		b.collector.IncCounter(stats.MetricBreakerRejections, 1)
		return ErrOpen
	default: // StateHalfOpen
		if b.probing {
			b.collector.IncCounter(stats.MetricBreakerRejections, 1)
			return ErrOpen
		}
		b.probing = true
		return nil
	}
}

// RecordSuccess reports a successful operation and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// RecordFailure reports a failed operation. A half-open probe failure
// reopens the breaker; the threshold consecutive failure opens it.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()
	b.probing = false

	switch b.state {
	case StateHalfOpen:
		b.transition(StateOpen)
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	}
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// ReleaseProbe abandons an admitted call without recording an outcome, so
// a half-open breaker can admit another probe. Used when the caller's
// context is cancelled mid-call; cancellation says nothing about backend
// health.
func (b *Breaker) ReleaseProbe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

// Reset returns the breaker to closed with no recorded failures.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// transition must be called with the lock held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to

	if to == StateOpen {
		b.collector.IncCounter(stats.MetricBreakerOpens, 1)
		b.logger.Warn("circuit opened",
			zap.String("operation", b.name),
			zap.Int("failures", b.failures),
		)
		return
	}
	b.logger.Debug("circuit state change",
		zap.String("operation", b.name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}
