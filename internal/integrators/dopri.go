package integrators

import (
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	e1 = 71.0 / 57600.0
	e3 = -71.0 / 16695.0
	e4 = 71.0 / 1920.0
	e5 = -17253.0 / 339200.0
	e6 = 22.0 / 525.0
	e7 = -1.0 / 40.0
)

const (
	AbsTol  = 1e-14
	RelTol  = 1e-13
	MinStep = 1e-8
	MaxStep = 0.005

	safety   = 0.9
	minScale = 0.2
	maxScale = 5.0

	// error norms below this are treated as exact
	negligibleErr = 1e-15
	fsalTimeTol   = 1e-12
)

// DormandPrince is an embedded RK5(4) stepper with first-same-as-last reuse.
// After an accepted step the final stage derivative is kept and reused as the
// first stage of the next step starting at the same time.
type DormandPrince struct {
	k           [7]dynamo.State
	stage       dynamo.State
	fsalK       dynamo.State
	fsalT       float64
	fsalReady   bool
	evaluations int
}

var _ dynamo.AdaptiveIntegrator = (*DormandPrince)(nil)

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{}
}

func (d *DormandPrince) ensureScratch(n int) {
	if len(d.stage) != n {
		for i := range d.k {
			d.k[i] = make(dynamo.State, n)
		}
		d.stage = make(dynamo.State, n)
		d.fsalK = make(dynamo.State, n)
		d.fsalReady = false
	}
}

// Reset drops the cached FSAL derivative.
func (d *DormandPrince) Reset() {
	d.fsalReady = false
	d.fsalT = 0
}

// FSAL returns the cached derivative, its time and whether it is usable.
func (d *DormandPrince) FSAL() (dynamo.State, float64, bool) {
	return d.fsalK.Clone(), d.fsalT, d.fsalReady
}

// Evaluations counts calls to the system derivative since construction.
func (d *DormandPrince) Evaluations() int { return d.evaluations }

func (d *DormandPrince) derive(dyn dynamo.System, x dynamo.State, t float64, dst dynamo.State) {
	copy(dst, dyn.Derive(x, t))
	d.evaluations++
}

// StepAdaptive attempts one step of size h from (t, x). It returns the 5th
// order solution, the step size to use next, and whether the error norm was
// within tolerance. The returned state is only meaningful when accepted.
func (d *DormandPrince) StepAdaptive(dyn dynamo.System, x dynamo.State, t, h float64) (dynamo.State, float64, bool) {
	n := len(x)
	d.ensureScratch(n)
	k1, k2, k3, k4, k5, k6, k7 := d.k[0], d.k[1], d.k[2], d.k[3], d.k[4], d.k[5], d.k[6]
	y := d.stage

	if d.fsalReady && math.Abs(t-d.fsalT) < fsalTimeTol {
		copy(k1, d.fsalK)
	} else {
		d.derive(dyn, x, t, k1)
	}

	for i := 0; i < n; i++ {
		y[i] = x[i] + h*b21*k1[i]
	}
	d.derive(dyn, y, t+a2*h, k2)

	for i := 0; i < n; i++ {
		y[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	d.derive(dyn, y, t+a3*h, k3)

	for i := 0; i < n; i++ {
		y[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	d.derive(dyn, y, t+a4*h, k4)

	for i := 0; i < n; i++ {
		y[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	d.derive(dyn, y, t+a5*h, k5)

	for i := 0; i < n; i++ {
		y[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	d.derive(dyn, y, t+h, k6)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}
	d.derive(dyn, xNew, t+h, k7)

	sumSq := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (e1*k1[i] + e3*k3[i] + e4*k4[i] + e5*k5[i] + e6*k6[i] + e7*k7[i])
		scale := AbsTol + RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		sumSq += (errEst / scale) * (errEst / scale)
	}
	errNorm := math.Sqrt(sumSq / float64(n))

	accepted := errNorm <= 1.0
	hNext := NextStep(h, errNorm)

	if accepted {
		copy(d.fsalK, k7)
		d.fsalT = t + h
		d.fsalReady = true
	} else {
		d.fsalReady = false
	}

	return xNew, hNext, accepted
}

// NextStep proposes the following step size from the error norm of a step of
// size h. The result always lies in [MinStep, MaxStep].
func NextStep(h, errNorm float64) float64 {
	if math.IsNaN(errNorm) {
		return MinStep
	}
	var hNew float64
	if errNorm < negligibleErr {
		hNew = h * maxScale
	} else {
		hNew = safety * h * math.Pow(errNorm, -0.2)
		hNew = math.Min(h*maxScale, math.Max(h*minScale, hNew))
	}
	return math.Min(MaxStep, math.Max(MinStep, hNew))
}
