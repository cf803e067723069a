package sim

import (
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// DefaultCapacity bounds every history and trace series.
const DefaultCapacity = 500_000

type Option func(*Driver)

// WithCapacity sets the maximum length of every history and trace series.
// Non-positive values are ignored.
func WithCapacity(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithDeterministic removes the wall-clock budget so that Advance always
// integrates the full requested interval.
func WithDeterministic() Option {
	return func(d *Driver) { d.deterministic = true }
}

func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) {
		if log != nil {
			d.log = log
		}
	}
}

// WithClock replaces time.Now for the frame budget and the flash deadline.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

func WithMetrics(metrics ...dynamo.Metric) Option {
	return func(d *Driver) { d.metrics = append(d.metrics, metrics...) }
}

// WithSpeed sets the initial speed multiplier. Non-positive values are ignored.
func WithSpeed(v float64) Option {
	return func(d *Driver) {
		if v > 0 {
			d.speed = v
		}
	}
}
