package sim

import (
	"math"

	"github.com/san-kum/dpsim/internal/series"
)

// MinTraceSpacing is the distance a bob must move before a new trace point
// is stored.
const MinTraceSpacing = 0.01

type trace struct {
	name    string
	enabled bool
	points  *series.Bounded[series.Vec2]
	pending *series.TraceBuffer
}

func newTrace(name string, capacity int) *trace {
	return &trace{
		name:    name,
		enabled: true,
		points:  series.NewBounded[series.Vec2](capacity),
		pending: series.NewTraceBuffer(capacity),
	}
}

// offer stores p if it is far enough from the last stored point.
func (tr *trace) offer(p series.Vec2) {
	if !tr.enabled {
		return
	}
	if last, ok := tr.points.Last(); ok && math.Hypot(p.X-last.X, p.Y-last.Y) <= MinTraceSpacing {
		return
	}
	tr.points.Push(p)
	tr.pending.Push(p)
}

func (tr *trace) clear() {
	tr.points.Clear()
	tr.pending.Clear()
}

func (d *Driver) updateTraces() {
	x1, y1, x2, y2 := d.model.Positions(d.x)
	d.trace1.offer(series.Vec2{X: x1, Y: y1})
	d.trace2.offer(series.Vec2{X: x2, Y: y2})
}

func (d *Driver) setShowTrace(tr *trace, show bool) bool {
	if tr.enabled == show {
		return false
	}
	tr.enabled = show
	d.emit(TraceVisibilityChanged, tr.name)
	return true
}

func (d *Driver) SetShowTrace1(show bool) bool { return d.setShowTrace(d.trace1, show) }
func (d *Driver) SetShowTrace2(show bool) bool { return d.setShowTrace(d.trace2, show) }
func (d *Driver) ShowTrace1() bool             { return d.trace1.enabled }
func (d *Driver) ShowTrace2() bool             { return d.trace2.enabled }

// Trace1 returns every stored point of the first bob's trace.
func (d *Driver) Trace1() []series.Vec2 { return d.trace1.points.Snapshot() }
func (d *Driver) Trace2() []series.Vec2 { return d.trace2.points.Snapshot() }

// DrainTrace1 returns the points stored since the previous drain.
func (d *Driver) DrainTrace1() []series.Vec2 { return d.trace1.pending.Drain() }
func (d *Driver) DrainTrace2() []series.Vec2 { return d.trace2.pending.Drain() }

func (d *Driver) ClearTraces() {
	d.trace1.clear()
	d.trace2.clear()
	d.emit(HistoryUpdated, "")
}
