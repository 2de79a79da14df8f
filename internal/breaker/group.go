package breaker

import (
	"sync"

	"go.uber.org/zap"

	"github.com/soma-enyi/soroban-ajo/internal/stats"
)

// Group manages one breaker per operation name so that failures in one
// backend call (say createGroup) do not trip fetches of unrelated data.
// Breakers are created lazily with a shared configuration.
type Group struct {
	cfg       Config
	logger    *zap.Logger
	collector stats.Collector

	mu sync.Mutex
	m  map[string]*Breaker
}

// NewGroup creates an empty breaker group.
func NewGroup(cfg Config, logger *zap.Logger, collector stats.Collector) *Group {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Group{
		cfg:       cfg.withDefaults(),
		logger:    logger,
		collector: collector,
		m:         make(map[string]*Breaker),
	}
}

// For returns the breaker for the named operation, creating it on first use.
func (g *Group) For(name string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.m[name]
	if !ok {
		b = New(name, g.cfg, g.logger, g.collector)
		g.m[name] = b
	}
	return b
}

// ResetAll returns every breaker in the group to closed.
func (g *Group) ResetAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, b := range g.m {
		b.Reset()
	}
}

// States returns a snapshot of each breaker's state by operation name.
func (g *Group) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]State, len(g.m))
	for name, b := range g.m {
		out[name] = b.State()
	}
	return out
}
