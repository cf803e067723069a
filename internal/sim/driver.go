package sim

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/poincare"
	"github.com/san-kum/dpsim/internal/series"
	"github.com/san-kum/dpsim/internal/storage"
)

const (
	// InitialStep is the first step size tried after a reset.
	InitialStep = 0.001
	// frameBudget is the share of each frame's wall time Advance may use.
	frameBudget = 0.8
)

// Driver owns one double pendulum and advances it frame by frame. It is not
// safe for concurrent mutation; readers may take snapshots of the history
// and traces from other goroutines.
type Driver struct {
	model *physics.DoublePendulum
	integ dynamo.AdaptiveIntegrator

	x           dynamo.State
	t           float64
	lastStep    float64
	accumulator float64
	speed       float64
	steps       int
	energies    physics.Energies

	manual bool
	failed bool
	err    error

	capacity       int
	history        *History
	trace1, trace2 *trace
	poincare       *series.Bounded[series.Vec2]
	detector       *poincare.Detector

	deterministic bool
	observers     []Observer
	metrics       []dynamo.Metric
	log           *zap.Logger
	now           func() time.Time
}

// New builds a driver for params starting from x0, which is
// [theta1, omega1, theta2_rel, omega2_rel]. Missing components are zero.
func New(params physics.Params, x0 dynamo.State, opts ...Option) *Driver {
	d := &Driver{
		model:    physics.NewDoublePendulum(params),
		integ:    integrators.NewDormandPrince(),
		speed:    1.0,
		capacity: DefaultCapacity,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.history = newHistory(d.capacity)
	d.trace1 = newTrace("trace1", d.capacity)
	d.trace2 = newTrace("trace2", d.capacity)
	d.poincare = series.NewBounded[series.Vec2](d.capacity)
	d.detector = poincare.NewDetector(0)

	x := make(dynamo.State, 4)
	copy(x, x0)
	d.Reset(x[0], x[1], x[2], x[3])
	return d
}

// Advance integrates delta·speed seconds of simulated time plus whatever was
// carried over from the previous call. Unless the driver is deterministic it
// stops after 80% of delta in wall time and carries the rest forward.
func (d *Driver) Advance(delta float64) {
	start := d.now()
	if d.detector.Expire(start) {
		d.emit(FlashChanged, "")
	}
	if d.failed {
		return
	}

	target := delta*d.speed + d.accumulator
	d.accumulator = 0
	budget := time.Duration(frameBudget * delta * float64(time.Second))
	t0 := d.t
	advanced := 0.0

	for advanced < target && !d.failed {
		if !d.deterministic && d.now().Sub(start) > budget {
			d.accumulator = target - advanced
			break
		}

		h := d.lastStep
		if remaining := target - advanced; remaining < h {
			if remaining < integrators.MinStep/2 {
				d.accumulator = remaining
				break
			}
			h = remaining
		}

		next, hNext, accepted := d.integ.StepAdaptive(d.model, d.x, d.t, h)
		if accepted {
			if d.manual {
				break
			}
			if !next.IsValid() {
				d.fail(dynamo.ErrInvalidState, next)
				break
			}
			d.x = next
			d.t += h
			advanced += h
			d.steps++
			d.record(start, h)
		} else {
			for _, m := range d.metrics {
				m.Reject(d.t, h)
			}
			if h <= integrators.MinStep && hNext <= integrators.MinStep {
				cause := dynamo.ErrStepTooSmall
				if !next.IsValid() {
					cause = dynamo.ErrInvalidState
				}
				d.fail(cause, next)
				break
			}
		}
		d.lastStep = hNext
	}

	if d.failed {
		return
	}
	if d.t != t0 {
		d.emit(TimeChanged, "")
		d.emit(HistoryUpdated, "")
	}
}

// record runs everything that follows an accepted step.
func (d *Driver) record(now time.Time, h float64) {
	d.energies = d.model.Energies(d.x)
	d.history.push(d.t, d.x, d.energies)
	d.updateTraces()

	if d.model.Singular(d.x) {
		d.log.Debug("mass matrix near singular, coasting",
			zap.Float64("t", d.t), zap.Float64s("state", d.x))
	}

	c := d.detector.Observe(now, d.x[0], d.x[1], d.x[2], d.x[3])
	if c.Triggered {
		d.poincare.Push(series.Vec2{X: c.Point[0], Y: c.Point[1]})
	}
	if c.Raised {
		d.emit(FlashChanged, "")
	}

	if len(d.metrics) > 0 {
		s := dynamo.Sample{
			Time:      d.t,
			Step:      h,
			State:     d.x,
			Kinetic:   d.energies.Kinetic,
			Potential: d.energies.Potential,
			Total:     d.energies.Total,
		}
		for _, m := range d.metrics {
			m.Observe(s)
		}
	}
}

// fail marks the driver failed. The committed state stays at the last
// accepted step; bad is the rejected candidate kept on the error.
func (d *Driver) fail(cause error, bad dynamo.State) {
	d.failed = true
	d.err = &dynamo.SimulationError{
		Step:    d.steps,
		Time:    d.t,
		State:   bad.Clone(),
		Wrapped: fmt.Errorf("simulation halted: %w", cause),
	}
	d.log.Warn("simulation failed",
		zap.Error(cause),
		zap.Int("step", d.steps),
		zap.Float64("t", d.t),
		zap.Float64("h", d.lastStep))
	d.emit(FailureChanged, "")
}

// Reset replaces the state and clears every buffer, the step context and the
// failure flag. Exactly one t=0 sample is recorded on each history channel.
func (d *Driver) Reset(theta1, omega1, theta2, omega2 float64) {
	flashed := d.detector.Flash(d.now())

	d.x = dynamo.State{theta1, omega1, theta2, omega2}
	d.t = 0
	d.steps = 0
	d.lastStep = InitialStep
	d.accumulator = 0
	d.integ.Reset()

	d.history.clear()
	d.trace1.clear()
	d.trace2.clear()
	d.poincare.Clear()
	d.detector.Reset(theta1)
	for _, m := range d.metrics {
		m.Reset()
	}

	d.energies = d.model.Energies(d.x)
	d.history.push(0, d.x, d.energies)

	d.log.Info("simulation reset",
		zap.Float64s("state", d.x),
		zap.Float64("energy", d.energies.Total))

	if d.failed {
		d.failed = false
		d.err = nil
		d.emit(FailureChanged, "")
	}
	if flashed {
		d.emit(FlashChanged, "")
	}
	d.emit(StateChanged, "")
	d.emit(TimeChanged, "")
	d.emit(HistoryUpdated, "")
}

// ClearHistory empties the history channels and the Poincaré map and
// restarts the clock at zero. The state is kept.
func (d *Driver) ClearHistory() {
	d.history.clear()
	d.poincare.Clear()
	d.t = 0
	d.integ.Reset()
	d.emit(TimeChanged, "")
	d.emit(HistoryUpdated, "")
}

func (d *Driver) ClearPoincare() {
	d.poincare.Clear()
	d.emit(HistoryUpdated, "")
}

// SetManualControl marks the pendulum as externally held. While active,
// Advance commits nothing.
func (d *Driver) SetManualControl(active bool) { d.manual = active }

func (d *Driver) ManualControl() bool { return d.manual }

func (d *Driver) SetTheta1(v float64) bool { return d.setComponent(0, v) }
func (d *Driver) SetTheta2(v float64) bool { return d.setComponent(2, v) }

func (d *Driver) setComponent(i int, v float64) bool {
	if d.x[i] == v {
		return false
	}
	d.x[i] = v
	d.integ.Reset()
	d.energies = d.model.Energies(d.x)
	if i == 0 {
		d.detector.Reset(v)
	}
	d.emit(StateChanged, "")
	return true
}

// SetSpeed changes the simulation speed multiplier. Non-positive values are
// ignored.
func (d *Driver) SetSpeed(v float64) bool {
	if v <= 0 || v == d.speed {
		return false
	}
	d.speed = v
	d.emit(SpeedChanged, "")
	return true
}

func (d *Driver) Speed() float64 { return d.speed }

// State returns a copy of [theta1, omega1, theta2_rel, omega2_rel].
func (d *Driver) State() dynamo.State { return d.x.Clone() }

func (d *Driver) Time() float64 { return d.t }

// Steps counts accepted steps since the last reset.
func (d *Driver) Steps() int { return d.steps }

// LastStep is the step size the next integration attempt will start from.
func (d *Driver) LastStep() float64 { return d.lastStep }

func (d *Driver) Energies() physics.Energies { return d.energies }

// Positions returns both bob positions, y pointing down.
func (d *Driver) Positions() (x1, y1, x2, y2 float64) { return d.model.Positions(d.x) }

func (d *Driver) Failed() bool { return d.failed }

// Err describes why the driver failed, or nil.
func (d *Driver) Err() error { return d.err }

// Flash reports whether a Poincaré crossing happened within the last 250ms.
func (d *Driver) Flash() bool {
	now := d.now()
	if d.detector.Expire(now) {
		d.emit(FlashChanged, "")
	}
	return d.detector.Flash(now)
}

func (d *Driver) History() *History { return d.history }

// Poincare returns the (theta2_rel, omega2_rel) section samples.
func (d *Driver) Poincare() []series.Vec2 { return d.poincare.Snapshot() }

func (d *Driver) Capacity() int { return d.capacity }

// Metrics returns the current value of every attached metric.
func (d *Driver) Metrics() map[string]float64 {
	out := make(map[string]float64, len(d.metrics))
	for _, m := range d.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// SaveTextToFile writes content to dest and reports success.
func (d *Driver) SaveTextToFile(dest, content string) bool {
	if err := storage.SaveText(dest, content); err != nil {
		d.log.Warn("save failed", zap.String("dest", dest), zap.Error(err))
		return false
	}
	return true
}
