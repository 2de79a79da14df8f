package ajo

import (
	"errors"

	"github.com/soma-enyi/soroban-ajo/internal/breaker"
	"github.com/soma-enyi/soroban-ajo/internal/guard"
	"github.com/soma-enyi/soroban-ajo/internal/store"
)

// Sentinel errors for well-defined error conditions. The aliased ones share
// their value with the owning internal package, so errors.Is matches
// whichever layer produced them.
var (
	// ErrInvalidKey indicates a key that is empty after sanitization, too
	// long, or names a credential.
	ErrInvalidKey = guard.ErrInvalidKey

	// ErrPayloadTooLarge indicates a value whose serialized form exceeds
	// the configured payload bound.
	ErrPayloadTooLarge = guard.ErrPayloadTooLarge

	// ErrSensitiveData indicates a value carrying a credential field or a
	// Stellar secret seed.
	ErrSensitiveData = guard.ErrSensitiveData

	// ErrRateLimited indicates a key exceeded its set budget for the window.
	ErrRateLimited = store.ErrRateLimited

	// ErrCircuitOpen indicates the circuit breaker is rejecting backend calls.
	ErrCircuitOpen = breaker.ErrOpen

	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("ajo: cache closed")

	// ErrNoFetcher indicates Fetch was called without a fetcher.
	ErrNoFetcher = errors.New("ajo: no fetcher provided")
)
