// Package simulation provides a synthetic RPC backend and workload replay
// for benchmarking cache configurations under realistic failure conditions.
package simulation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	ajo "github.com/soma-enyi/soroban-ajo"
)

var errUnavailable = errors.New("simulated backend unavailable")

// BackendConfig controls the behavior of the simulated backend.
type BackendConfig struct {
	// BaseLatency is the fixed portion of each call's latency.
	BaseLatency time.Duration

	// Jitter is the maximum random latency added on top of BaseLatency.
	Jitter time.Duration

	// FailureRate is the probability in [0, 1] that a call fails with a
	// retryable 503 error.
	FailureRate float64

	// Seed makes the failure and jitter sequence reproducible.
	// Zero selects a fixed default seed.
	Seed int64
}

// Backend simulates a slow, occasionally failing RPC endpoint.
// It stands in for a Soroban RPC node so benchmark runs do not need
// network access.
type Backend struct {
	cfg BackendConfig

	mu  sync.Mutex
	rng *rand.Rand

	calls    atomic.Int64
	failures atomic.Int64
}

// Record is the payload returned by successful backend calls.
type Record struct {
	Key      string `json:"key"`
	Revision int64  `json:"revision"`
}

// NewBackend creates a simulated backend.
func NewBackend(cfg BackendConfig) *Backend {
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &Backend{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Fetch performs one simulated RPC call. It sleeps for the configured
// latency, then either fails with a retryable error or returns a Record
// carrying the call's revision number.
func (b *Backend) Fetch(ctx context.Context, key string) (any, error) {
	rev := b.calls.Add(1)

	b.mu.Lock()
	delay := b.cfg.BaseLatency
	if b.cfg.Jitter > 0 {
		delay += time.Duration(b.rng.Int63n(int64(b.cfg.Jitter)))
	}
	failed := b.cfg.FailureRate > 0 && b.rng.Float64() < b.cfg.FailureRate
	b.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if failed {
		b.failures.Add(1)
		return nil, &ajo.RPCError{
			Op:     "simulated-rpc",
			Status: 503,
			Code:   "tryAgainLater",
			Err:    errUnavailable,
		}
	}

	return Record{Key: key, Revision: rev}, nil
}

// Fetcher adapts the backend to the cache's fetcher signature for a
// fixed key.
func (b *Backend) Fetcher(key string) ajo.Fetcher {
	return func(ctx context.Context) (any, error) {
		return b.Fetch(ctx, key)
	}
}

// Calls returns the total number of calls received, including failures.
func (b *Backend) Calls() int64 { return b.calls.Load() }

// Failures returns the number of calls that failed.
func (b *Backend) Failures() int64 { return b.failures.Load() }
