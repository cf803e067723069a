package sim

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
)

type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(e Event) { r.events = append(r.events, e) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type countingMetric struct {
	observed, rejected int
}

func (c *countingMetric) Name() string            { return "count" }
func (c *countingMetric) Observe(dynamo.Sample)   { c.observed++ }
func (c *countingMetric) Reject(float64, float64) { c.rejected++ }
func (c *countingMetric) Value() float64          { return float64(c.observed) }
func (c *countingMetric) Reset()                  { c.observed, c.rejected = 0, 0 }

func newDeterministic(x0 dynamo.State, opts ...Option) *Driver {
	return New(physics.DefaultParams(), x0, append([]Option{WithDeterministic()}, opts...)...)
}

func TestAdvanceCoversRequestedTime(t *testing.T) {
	d := newDeterministic(dynamo.State{math.Pi / 4, 0, math.Pi / 4, 0})

	d.Advance(0.25)
	assert.InDelta(t, 0.25, d.Time(), 1e-9)

	d.Advance(0.25)
	assert.InDelta(t, 0.5, d.Time(), 1e-9)
	assert.False(t, d.Failed())
	assert.Equal(t, d.Steps()+1, d.History().Len())
}

func TestAdvanceAppliesSpeed(t *testing.T) {
	d := newDeterministic(dynamo.State{0.5, 0, 0, 0})

	assert.False(t, d.SetSpeed(0))
	assert.False(t, d.SetSpeed(-1))
	assert.False(t, d.SetSpeed(1))
	require.True(t, d.SetSpeed(2.5))

	d.Advance(0.1)
	assert.InDelta(t, 0.25, d.Time(), 1e-9)
}

func TestAdvanceRespectsFrameBudget(t *testing.T) {
	base := time.Unix(0, 0)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	d := New(physics.DefaultParams(), dynamo.State{0.5, 0, 0, 0}, WithClock(clock))

	d.Advance(0.1)

	assert.Equal(t, 0.0, d.Time())
	assert.Equal(t, 1, d.History().Len())
	assert.InDelta(t, 0.1, d.accumulator, 1e-15)
}

func TestAdvanceStepsStayBounded(t *testing.T) {
	d := newDeterministic(dynamo.State{2.0, 0, -1.0, 3.0})

	d.Advance(1.0)

	theta := d.History().Theta1()
	for i := 1; i < len(theta); i++ {
		h := theta[i].T - theta[i-1].T
		assert.LessOrEqual(t, h, 0.005+1e-12)
		assert.Greater(t, h, 0.0)
	}
}

func TestManualControlCommitsNothing(t *testing.T) {
	d := newDeterministic(dynamo.State{0.5, 0, 0, 0})
	d.SetManualControl(true)

	d.Advance(0.5)

	assert.Equal(t, 0.0, d.Time())
	assert.Equal(t, 1, d.History().Len())
	assert.Empty(t, d.Trace1())

	d.SetManualControl(false)
	d.Advance(0.1)
	assert.InDelta(t, 0.1, d.Time(), 1e-9)
}

func TestSetThetaPlacesPendulum(t *testing.T) {
	d := newDeterministic(dynamo.State{0, 0, 0, 0})
	rec := &recorder{}
	d.AddObserver(rec)

	assert.True(t, d.SetTheta1(1.0))
	assert.False(t, d.SetTheta1(1.0))
	assert.True(t, d.SetTheta2(-0.5))

	assert.Equal(t, dynamo.State{1.0, 0, -0.5, 0}, d.State())
	assert.Equal(t, 2, rec.count(StateChanged))
	assert.Equal(t, d.Model().Energies(d.State()), d.Energies())
}

func TestInvalidStateFailsAndResetRecovers(t *testing.T) {
	d := newDeterministic(dynamo.State{math.NaN(), 0, 0, 0})
	rec := &recorder{}
	d.AddObserver(rec)

	d.Advance(0.1)
	require.True(t, d.Failed())
	assert.ErrorIs(t, d.Err(), dynamo.ErrInvalidState)
	assert.Equal(t, 1, rec.count(FailureChanged))

	var simErr *dynamo.SimulationError
	require.ErrorAs(t, d.Err(), &simErr)

	// failure is sticky
	d.Advance(0.1)
	assert.Equal(t, 0.0, d.Time())
	assert.Equal(t, 1, rec.count(FailureChanged))

	d.Reset(0.3, 0, 0, 0)
	assert.False(t, d.Failed())
	assert.NoError(t, d.Err())
	assert.Equal(t, 2, rec.count(FailureChanged))

	d.Advance(0.1)
	assert.False(t, d.Failed())
	assert.InDelta(t, 0.1, d.Time(), 1e-9)
}

func TestStepCollapseFailsWithoutCommitting(t *testing.T) {
	d := newDeterministic(dynamo.State{0, 1e7, 0, -1e7})
	rec := &recorder{}
	d.AddObserver(rec)

	d.Advance(1e-4)

	require.True(t, d.Failed())
	assert.ErrorIs(t, d.Err(), dynamo.ErrStepTooSmall)
	assert.NotErrorIs(t, d.Err(), dynamo.ErrInvalidState)
	assert.Equal(t, 0.0, d.Time())
	assert.Equal(t, 0, d.Steps())
	assert.Equal(t, 1, rec.count(FailureChanged))
	assert.Equal(t, 0, rec.count(TimeChanged))
}

type blowUp struct{}

func (blowUp) StepAdaptive(_ dynamo.System, x dynamo.State, _, h float64) (dynamo.State, float64, bool) {
	next := x.Clone()
	next[0] = math.Inf(1)
	return next, h, true
}

func (blowUp) Reset() {}

func TestNonFiniteStepKeepsLastGoodState(t *testing.T) {
	x0 := dynamo.State{0.4, 0.1, -0.2, 0}
	d := newDeterministic(x0)
	d.integ = blowUp{}

	d.Advance(0.1)

	require.True(t, d.Failed())
	assert.ErrorIs(t, d.Err(), dynamo.ErrInvalidState)
	assert.Equal(t, x0, d.State())
	assert.True(t, d.State().IsValid())
	assert.Equal(t, 0.0, d.Time())
	assert.Equal(t, 1, d.History().Len())

	x1, y1, x2, y2 := d.Positions()
	for _, v := range []float64{x1, y1, x2, y2} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}

	var simErr *dynamo.SimulationError
	require.ErrorAs(t, d.Err(), &simErr)
	assert.True(t, math.IsInf(simErr.State[0], 1))
}

func TestParamSettersNotifyOnChange(t *testing.T) {
	d := newDeterministic(dynamo.State{0, 0, 0, 0})
	rec := &recorder{}
	d.AddObserver(rec)

	assert.True(t, d.SetG(1.62))
	assert.False(t, d.SetG(1.62))
	assert.False(t, d.SetL1(1.0))

	changed, err := d.SetParam("c2", 0.2)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = d.SetParam("mass", 1)
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)

	require.Len(t, rec.events, 2)
	assert.Equal(t, Event{Kind: ParamChanged, Name: "g"}, rec.events[0])
	assert.Equal(t, Event{Kind: ParamChanged, Name: "c2"}, rec.events[1])
	assert.Equal(t, 1.62, d.Params().G)
}

func TestTracesDrainIncrementally(t *testing.T) {
	d := newDeterministic(dynamo.State{1.0, 0, 0.5, 0})

	d.Advance(0.5)
	all := d.Trace2()
	require.NotEmpty(t, all)
	assert.Equal(t, all, d.DrainTrace2())
	assert.Empty(t, d.DrainTrace2())

	d.Advance(0.5)
	fresh := d.DrainTrace2()
	assert.Equal(t, d.Trace2()[len(all):], fresh)

	d.ClearTraces()
	assert.Empty(t, d.Trace1())
	assert.Empty(t, d.DrainTrace1())
}

func TestTraceVisibility(t *testing.T) {
	d := newDeterministic(dynamo.State{1.0, 0, 0.5, 0})
	rec := &recorder{}
	d.AddObserver(rec)

	assert.True(t, d.SetShowTrace1(false))
	assert.False(t, d.SetShowTrace1(false))
	d.Advance(0.5)

	assert.Empty(t, d.Trace1())
	assert.NotEmpty(t, d.Trace2())
	assert.Equal(t, 1, rec.count(TraceVisibilityChanged))
	assert.False(t, d.ShowTrace1())
	assert.True(t, d.ShowTrace2())
}

func TestClearHistoryRestartsClock(t *testing.T) {
	d := newDeterministic(dynamo.State{-0.05, 1.0, 0, 0})
	d.Advance(0.5)
	require.NotEmpty(t, d.Poincare())

	d.ClearHistory()

	assert.Equal(t, 0.0, d.Time())
	assert.Equal(t, 0, d.History().Len())
	assert.Empty(t, d.Poincare())

	d.Advance(0.1)
	assert.InDelta(t, 0.1, d.Time(), 1e-9)
}

func TestClearPoincareAndTraces(t *testing.T) {
	d := newDeterministic(dynamo.State{-0.05, 1.0, 0, 0})
	d.Advance(0.5)
	require.NotEmpty(t, d.Poincare())
	require.NotEmpty(t, d.Trace1())
	steps := d.Steps()

	d.ClearPoincare()
	assert.Empty(t, d.Poincare())
	assert.NotEmpty(t, d.Trace1())

	d.ClearTraces()
	assert.Empty(t, d.Trace1())
	assert.Empty(t, d.Trace2())
	assert.Empty(t, d.DrainTrace1())
	assert.Equal(t, steps, d.Steps())
	assert.Positive(t, d.History().Len())
}

func TestPendingTracesStayBoundedWithoutDrain(t *testing.T) {
	const capacity = 40
	d := newDeterministic(dynamo.State{2, 0, -2, 0}, WithCapacity(capacity))

	for i := 0; i < 100; i++ {
		d.Advance(0.05)
	}

	stored := d.Trace2()
	require.Len(t, stored, capacity)
	pending := d.DrainTrace2()
	assert.LessOrEqual(t, len(pending), capacity)
	assert.Equal(t, stored, pending)
	assert.LessOrEqual(t, len(d.DrainTrace1()), capacity)
}

func TestMetricsObserveAcceptedSteps(t *testing.T) {
	m := &countingMetric{}
	d := newDeterministic(dynamo.State{1.0, 0, 1.0, 0}, WithMetrics(m))

	d.Advance(0.3)

	assert.Equal(t, d.Steps(), m.observed)
	assert.Equal(t, float64(d.Steps()), d.Metrics()["count"])

	d.Reset(0, 0, 0, 0)
	assert.Equal(t, 0, m.observed)
}

func TestSaveTextToFile(t *testing.T) {
	d := newDeterministic(dynamo.State{0, 0, 0, 0})

	assert.False(t, d.SaveTextToFile("", "x"))
	assert.False(t, d.SaveTextToFile(filepath.Join(t.TempDir(), "missing", "out.txt"), "x"))
	assert.True(t, d.SaveTextToFile(filepath.Join(t.TempDir(), "out.txt"), "x"))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "param_changed", ParamChanged.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
