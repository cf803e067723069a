// Package experiment runs a configured pendulum without a UI and persists
// the outcome.
package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/metrics"
	"github.com/san-kum/dpsim/internal/sim"
	"github.com/san-kum/dpsim/internal/storage"
)

type Result struct {
	Driver  *sim.Driver
	Frames  int
	Elapsed time.Duration
	Drift   *metrics.EnergyDrift
	Steps   *metrics.StepStats
	Flips   *metrics.Flips
}

type Experiment struct {
	cfg *config.Config
	log *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Experiment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Experiment{cfg: cfg, log: log}
}

// NewDriver builds a driver from the config with the standard metrics
// attached.
func NewDriver(cfg *config.Config, log *zap.Logger, extra ...sim.Option) (*sim.Driver, *metrics.EnergyDrift, *metrics.StepStats, *metrics.Flips) {
	drift := metrics.NewEnergyDrift()
	steps := metrics.NewStepStats()
	flips := metrics.NewFlips()

	opts := []sim.Option{
		sim.WithCapacity(cfg.Capacity),
		sim.WithSpeed(cfg.Speed),
		sim.WithLogger(log),
		sim.WithMetrics(drift, steps, flips),
	}
	if cfg.Deterministic {
		opts = append(opts, sim.WithDeterministic())
	}
	opts = append(opts, extra...)

	d := sim.New(cfg.Params.PhysicsParams(), cfg.InitState.State(), opts...)
	d.SetShowTrace1(cfg.Trace1)
	d.SetShowTrace2(cfg.Trace2)
	return d, drift, steps, flips
}

// Run advances the driver frame by frame until the configured duration of
// simulated time has passed, the driver fails or ctx is cancelled.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	d, drift, steps, flips := NewDriver(e.cfg, e.log)
	res := &Result{Driver: d, Drift: drift, Steps: steps, Flips: flips}

	start := time.Now()
	delta := e.cfg.FrameDelta()
	frames := e.cfg.Frames()

	e.log.Info("run started",
		zap.String("preset", e.cfg.Preset),
		zap.Float64("duration", e.cfg.Duration),
		zap.Int("frames", frames),
		zap.Bool("deterministic", e.cfg.Deterministic))

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			res.Elapsed = time.Since(start)
			return res, ctx.Err()
		default:
		}

		d.Advance(delta)
		res.Frames++
		if d.Failed() {
			break
		}
	}
	res.Elapsed = time.Since(start)

	if d.Failed() {
		e.log.Warn("run halted", zap.Error(d.Err()), zap.Float64("t", d.Time()))
	}
	e.log.Info("run finished",
		zap.Int("steps", d.Steps()),
		zap.Float64("t", d.Time()),
		zap.Float64("energy_drift", drift.Value()),
		zap.Duration("elapsed", res.Elapsed))

	return res, nil
}

// Record builds the persisted form of a result.
func (e *Experiment) Record(res *Result) storage.Run {
	d := res.Driver
	meta := storage.RunMetadata{
		Preset:        e.cfg.Preset,
		Duration:      e.cfg.Duration,
		FPS:           e.cfg.FPS,
		Speed:         e.cfg.Speed,
		Deterministic: e.cfg.Deterministic,
		Params:        d.Model().Params(),
		InitState:     e.cfg.InitState.State(),
		Steps:         d.Steps(),
		SimTime:       d.Time(),
		Failed:        d.Failed(),
		Metrics:       d.Metrics(),
	}
	if err := d.Err(); err != nil {
		meta.Error = err.Error()
	}
	return storage.Run{Meta: meta, History: d.History(), Poincare: d.Poincare()}
}
