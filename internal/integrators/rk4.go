package integrators

import "github.com/san-kum/dpsim/internal/dynamo"

// Classic fourth order tableau. Stage i is evaluated at t + rk4C[i]·dt from
// x + dt·rk4A[i]·k[i-1].
var (
	rk4A = [4]float64{0, 0.5, 0.5, 1}
	rk4C = [4]float64{0, 0.5, 0.5, 1}
	rk4B = [4]float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6}
)

// RK4 is a fixed-step fourth order stepper, used as the baseline when
// comparing energy drift against the adaptive stepper and for Lyapunov
// estimates where a constant step is wanted.
type RK4 struct {
	k           [4]dynamo.State
	probe       dynamo.State
	evaluations int
}

func NewRK4() *RK4 {
	return &RK4{}
}

// Evaluations counts derivative evaluations since construction.
func (r *RK4) Evaluations() int { return r.evaluations }

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.probe) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.probe = make(dynamo.State, n)
	}

	next := x.Clone()
	for s := range r.k {
		copy(r.probe, x)
		if s > 0 {
			prev := r.k[s-1]
			for i := range r.probe {
				r.probe[i] += dt * rk4A[s] * prev[i]
			}
		}
		copy(r.k[s], dyn.Derive(r.probe, t+rk4C[s]*dt))
		r.evaluations++

		for i := range next {
			next[i] += dt * rk4B[s] * r.k[s][i]
		}
	}
	return next
}
