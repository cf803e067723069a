package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) State
}

// AdaptiveIntegrator attempts a single step of size h and reports whether the
// local error was acceptable together with the step size to try next.
type AdaptiveIntegrator interface {
	StepAdaptive(dyn System, x State, t, h float64) (next State, hNext float64, accepted bool)
	Reset()
}

type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) (bool, error)
}

// Sample is what metrics see after every accepted step.
type Sample struct {
	Time      float64
	Step      float64
	State     State
	Kinetic   float64
	Potential float64
	Total     float64
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Reject(t, h float64)
	Value() float64
	Reset()
}
