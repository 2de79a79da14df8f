// Package testajofx provides an fx module for an isolated test cache.
// TTLs are short, stale serving is off, and metrics are silenced so
// tests see deterministic cache behavior.
package testajofx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	ajo "github.com/soma-enyi/soroban-ajo"
)

// Module provides a test-preset cache.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("testajo",
	fx.Provide(newCache),
)

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *ajo.Cache
}

func newCache(p Params) (Result, error) {
	cache, err := ajo.New(
		ajo.WithConfig(ajo.TestConfig()),
		ajo.WithLogger(p.Logger.Named("ajo")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{Cache: cache}, nil
}
