package analysis

import (
	"math"

	"github.com/san-kum/dpsim/internal/dynamo"
)

// Lyapunov estimates the largest Lyapunov exponent by following a reference
// trajectory and a companion started d0 away along the first coordinate.
// After every step the companion is pulled back to distance d0 along the
// current separation, and the exponent is the mean log growth rate. A
// positive value indicates chaos.
func Lyapunov(dyn dynamo.System, integ dynamo.Integrator, x0 dynamo.State, dt, duration, d0 float64) float64 {
	if len(x0) == 0 || dt <= 0 || duration <= 0 || d0 <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += d0

	sumLog := 0.0
	t := 0.0
	for t < duration {
		x = integ.Step(dyn, x, t, dt)
		xp = integ.Step(dyn, xp, t, dt)
		t += dt

		sep := xp.Sub(x).Norm()
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return 0
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
	}

	return sumLog / t
}
