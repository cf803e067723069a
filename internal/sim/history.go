package sim

import (
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/series"
)

// History holds one bounded series per recorded channel. Angles are stored
// in radians and theta2 is relative to the first rod. All accessors return
// copies.
type History struct {
	theta1, theta2 *series.Bounded[series.Point]
	omega1, omega2 *series.Bounded[series.Point]
	kinetic        *series.Bounded[series.Point]
	potential      *series.Bounded[series.Point]
	total          *series.Bounded[series.Point]
}

func newHistory(capacity int) *History {
	return &History{
		theta1:    series.NewBounded[series.Point](capacity),
		theta2:    series.NewBounded[series.Point](capacity),
		omega1:    series.NewBounded[series.Point](capacity),
		omega2:    series.NewBounded[series.Point](capacity),
		kinetic:   series.NewBounded[series.Point](capacity),
		potential: series.NewBounded[series.Point](capacity),
		total:     series.NewBounded[series.Point](capacity),
	}
}

func (h *History) push(t float64, x dynamo.State, e physics.Energies) {
	h.theta1.Push(series.Point{T: t, V: x[0]})
	h.omega1.Push(series.Point{T: t, V: x[1]})
	h.theta2.Push(series.Point{T: t, V: x[2]})
	h.omega2.Push(series.Point{T: t, V: x[3]})
	h.kinetic.Push(series.Point{T: t, V: e.Kinetic})
	h.potential.Push(series.Point{T: t, V: e.Potential})
	h.total.Push(series.Point{T: t, V: e.Total})
}

func (h *History) clear() {
	for _, s := range h.all() {
		s.Clear()
	}
}

func (h *History) all() []*series.Bounded[series.Point] {
	return []*series.Bounded[series.Point]{
		h.theta1, h.theta2, h.omega1, h.omega2, h.kinetic, h.potential, h.total,
	}
}

// Len is the number of samples in the theta1 channel. Every channel has
// the same length.
func (h *History) Len() int { return h.theta1.Len() }

func (h *History) Theta1() []series.Point    { return h.theta1.Snapshot() }
func (h *History) Theta2() []series.Point    { return h.theta2.Snapshot() }
func (h *History) Omega1() []series.Point    { return h.omega1.Snapshot() }
func (h *History) Omega2() []series.Point    { return h.omega2.Snapshot() }
func (h *History) Kinetic() []series.Point   { return h.kinetic.Snapshot() }
func (h *History) Potential() []series.Point { return h.potential.Snapshot() }
func (h *History) Total() []series.Point     { return h.total.Snapshot() }
