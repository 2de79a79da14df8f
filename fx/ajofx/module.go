// Package ajofx provides an fx module for a preset- or file-configured cache.
package ajofx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	ajo "github.com/soma-enyi/soroban-ajo"
	"github.com/soma-enyi/soroban-ajo/internal/stats"
	logstats "github.com/soma-enyi/soroban-ajo/internal/stats/logger"
)

// Config holds configuration for the cache module.
type Config struct {
	// Environment selects a preset: production, staging, development,
	// or test. Empty defaults to production.
	Environment string

	// File optionally points to a YAML config file. When set it takes
	// precedence over Environment.
	File string
}

// Module provides a cache for dashboard data.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("ajo",
	fx.Provide(
		newStatsCollector,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logstats.New(log.Named("ajo.stats"))
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *ajo.Cache
}

func newCache(p Params) (Result, error) {
	opts := []ajo.Option{
		ajo.WithLogger(p.Logger.Named("ajo")),
		ajo.WithStats(p.Collector),
	}

	switch {
	case p.Config.File != "":
		opt, err := ajo.WithConfigFile(p.Config.File)
		if err != nil {
			return Result{}, err
		}
		opts = append(opts, opt)
	case p.Config.Environment != "":
		opt, err := ajo.WithPreset(p.Config.Environment)
		if err != nil {
			return Result{}, err
		}
		opts = append(opts, opt)
	}

	cache, err := ajo.New(opts...)
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
