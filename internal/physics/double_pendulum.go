package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// singularDet is the mass-matrix determinant below which the model coasts.
const singularDet = 1e-12

// Params holds the physical constants of the pendulum.
type Params struct {
	M1, M2             float64 // bob masses (kg)
	RodMass1, RodMass2 float64 // uniform rod masses (kg)
	L1, L2             float64 // rod lengths (m)
	B1, B2             float64 // linear drag
	C1, C2             float64 // quadratic drag
	G                  float64 // gravity (m/s^2)
}

func DefaultParams() Params {
	return Params{
		M1: 1.0, M2: 1.0,
		RodMass1: 0.5, RodMass2: 0.5,
		L1: 1.0, L2: 1.0,
		G: 9.81,
	}
}

type bounds struct{ min, max float64 }

var (
	massBounds    = bounds{0.01, 30}
	rodMassBounds = bounds{0, 10}
	lengthBounds  = bounds{0.1, 5}
	linearBounds  = bounds{0, 10}
	quadBounds    = bounds{0, 5}
	gravityBounds = bounds{0, 100}
)

func (b bounds) clamp(v float64) float64 {
	return math.Max(b.min, math.Min(v, b.max))
}

// Clamped returns a copy with every field forced into its valid range.
func (p Params) Clamped() Params {
	return Params{
		M1: massBounds.clamp(p.M1), M2: massBounds.clamp(p.M2),
		RodMass1: rodMassBounds.clamp(p.RodMass1), RodMass2: rodMassBounds.clamp(p.RodMass2),
		L1: lengthBounds.clamp(p.L1), L2: lengthBounds.clamp(p.L2),
		B1: linearBounds.clamp(p.B1), B2: linearBounds.clamp(p.B2),
		C1: quadBounds.clamp(p.C1), C2: quadBounds.clamp(p.C2),
		G: gravityBounds.clamp(p.G),
	}
}

// Energies is derived from state on demand and never integrated.
type Energies struct {
	Kinetic   float64
	Potential float64
	Total     float64
}

// DoublePendulum is a planar two-link pendulum with massive rods.
// State: [theta1_abs, omega1_abs, theta2_rel, omega2_rel], where theta2 is
// measured from the direction of the first rod.
type DoublePendulum struct {
	p Params
}

func NewDoublePendulum(p Params) *DoublePendulum {
	return &DoublePendulum{p: p.Clamped()}
}

func (d *DoublePendulum) StateDim() int { return 4 }

func (d *DoublePendulum) Parameters() Params { return d.p }

// massMatrix returns the generalized mass matrix entries and forcing terms.
func (d *DoublePendulum) massMatrix(x dynamo.State) (a11, a12, a22, b1, b2 float64) {
	p := d.p
	theta1, omega1, theta2r, omega2r := x[0], x[1], x[2], x[3]
	theta2 := theta1 + theta2r
	omega2 := omega1 + omega2r

	sinD, cosD := math.Sincos(theta1 - theta2)
	coupling := (p.M2 + p.RodMass2/2) * p.L1 * p.L2

	a11 = (p.M1 + p.RodMass1/3 + p.M2 + p.RodMass2) * p.L1 * p.L1
	a12 = coupling * cosD
	a22 = (p.M2 + p.RodMass2/3) * p.L2 * p.L2

	q1 := -p.B1*omega1 - p.C1*omega1*math.Abs(omega1)
	q2 := -p.B2*omega2r - p.C2*omega2r*math.Abs(omega2r)

	b1 = -coupling*omega2*omega2*sinD -
		p.G*(p.M1+p.RodMass1/2+p.M2+p.RodMass2)*p.L1*math.Sin(theta1) + q1
	b2 = coupling*omega1*omega1*sinD -
		p.G*(p.M2+p.RodMass2/2)*p.L2*math.Sin(theta2) + q2
	return
}

// Derive solves A·ẅ = B by Cramer's rule. A near-singular mass matrix yields
// zero angular accelerations.
func (d *DoublePendulum) Derive(x dynamo.State, _ float64) dynamo.State {
	a11, a12, a22, b1, b2 := d.massMatrix(x)
	det := a11*a22 - a12*a12
	if math.Abs(det) < singularDet {
		return dynamo.State{x[1], 0, x[3], 0}
	}

	alpha1 := (b1*a22 - a12*b2) / det
	alpha2 := (a11*b2 - b1*a12) / det

	return dynamo.State{x[1], alpha1, x[3], alpha2 - alpha1}
}

// Singular reports whether Derive would degrade to coasting at x.
func (d *DoublePendulum) Singular(x dynamo.State) bool {
	a11, a12, a22, _, _ := d.massMatrix(x)
	return math.Abs(a11*a22-a12*a12) < singularDet
}

func (d *DoublePendulum) Energies(x dynamo.State) Energies {
	p := d.p
	theta1, omega1, theta2r, omega2r := x[0], x[1], x[2], x[3]
	theta2 := theta1 + theta2r
	omega2 := omega1 + omega2r

	t1 := 0.5 * (p.M1 + p.RodMass1/3) * p.L1 * p.L1 * omega1 * omega1
	t2 := 0.5*(p.M2+p.RodMass2)*p.L1*p.L1*omega1*omega1 +
		0.5*(p.M2+p.RodMass2/3)*p.L2*p.L2*omega2*omega2 +
		(p.M2+p.RodMass2/2)*p.L1*p.L2*omega1*omega2*math.Cos(theta2r)

	// y axis points down from the pivot
	v1 := (p.M1 + p.RodMass1/2 + p.M2 + p.RodMass2) * p.G * p.L1 * math.Cos(theta1)
	v2 := (p.M2 + p.RodMass2/2) * p.G * p.L2 * math.Cos(theta2)

	e := Energies{Kinetic: t1 + t2, Potential: -(v1 + v2)}
	e.Total = e.Kinetic + e.Potential
	return e
}

// Positions returns the Cartesian bob positions, y pointing down.
func (d *DoublePendulum) Positions(x dynamo.State) (x1, y1, x2, y2 float64) {
	theta1 := x[0]
	theta2 := x[0] + x[2]
	x1 = d.p.L1 * math.Sin(theta1)
	y1 = d.p.L1 * math.Cos(theta1)
	x2 = x1 + d.p.L2*math.Sin(theta2)
	y2 = y1 + d.p.L2*math.Cos(theta2)
	return
}

func set(field *float64, b bounds, v float64) bool {
	v = b.clamp(v)
	if *field == v {
		return false
	}
	*field = v
	return true
}

func (d *DoublePendulum) SetM1(v float64) bool       { return set(&d.p.M1, massBounds, v) }
func (d *DoublePendulum) SetM2(v float64) bool       { return set(&d.p.M2, massBounds, v) }
func (d *DoublePendulum) SetRodMass1(v float64) bool { return set(&d.p.RodMass1, rodMassBounds, v) }
func (d *DoublePendulum) SetRodMass2(v float64) bool { return set(&d.p.RodMass2, rodMassBounds, v) }
func (d *DoublePendulum) SetL1(v float64) bool       { return set(&d.p.L1, lengthBounds, v) }
func (d *DoublePendulum) SetL2(v float64) bool       { return set(&d.p.L2, lengthBounds, v) }
func (d *DoublePendulum) SetB1(v float64) bool       { return set(&d.p.B1, linearBounds, v) }
func (d *DoublePendulum) SetB2(v float64) bool       { return set(&d.p.B2, linearBounds, v) }
func (d *DoublePendulum) SetC1(v float64) bool       { return set(&d.p.C1, quadBounds, v) }
func (d *DoublePendulum) SetC2(v float64) bool       { return set(&d.p.C2, quadBounds, v) }
func (d *DoublePendulum) SetG(v float64) bool        { return set(&d.p.G, gravityBounds, v) }

// ParamNames lists the names accepted by SetParam, in display order.
var ParamNames = []string{"m1", "m2", "rod_mass1", "rod_mass2", "l1", "l2", "b1", "b2", "c1", "c2", "g"}

var _ dynamo.Configurable = (*DoublePendulum)(nil)

// Params implements dynamo.Configurable
func (d *DoublePendulum) Params() map[string]float64 {
	return map[string]float64{
		"m1":        d.p.M1,
		"m2":        d.p.M2,
		"rod_mass1": d.p.RodMass1,
		"rod_mass2": d.p.RodMass2,
		"l1":        d.p.L1,
		"l2":        d.p.L2,
		"b1":        d.p.B1,
		"b2":        d.p.B2,
		"c1":        d.p.C1,
		"c2":        d.p.C2,
		"g":         d.p.G,
	}
}

// SetParam implements dynamo.Configurable
func (d *DoublePendulum) SetParam(name string, value float64) (bool, error) {
	switch name {
	case "m1":
		return d.SetM1(value), nil
	case "m2":
		return d.SetM2(value), nil
	case "rod_mass1":
		return d.SetRodMass1(value), nil
	case "rod_mass2":
		return d.SetRodMass2(value), nil
	case "l1":
		return d.SetL1(value), nil
	case "l2":
		return d.SetL2(value), nil
	case "b1":
		return d.SetB1(value), nil
	case "b2":
		return d.SetB2(value), nil
	case "c1":
		return d.SetC1(value), nil
	case "c2":
		return d.SetC2(value), nil
	case "g":
		return d.SetG(value), nil
	default:
		return false, fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
}
