// Package logger emits metrics as debug log lines. It backs the
// development presets where a Prometheus registry is overkill.
package logger

import (
	"go.uber.org/zap"

	"github.com/soma-enyi/soroban-ajo/internal/stats"
)

// Collector writes each observation to a zap logger at debug level,
// using the metric name as the message.
type Collector struct {
	logger *zap.Logger
}

var _ stats.Collector = (*Collector)(nil)

// New returns a Collector backed by l. A nil logger is replaced with
// zap.NewNop so the collector is always safe to call.
func New(l *zap.Logger) *Collector {
	if l == nil {
		l = zap.NewNop()
	}
	return &Collector{logger: l}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.logger.Debug(name, zap.Int64("delta", delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.logger.Debug(name, zap.Int64("gauge", value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug(name, zap.Float64("observation", value))
}
