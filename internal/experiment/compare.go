package experiment

import (
	"context"
	"math"

	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/integrators"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/series"
)

// Comparison holds relative total-energy drift over time for the adaptive
// stepper and a fixed-step RK4 started from the same state.
type Comparison struct {
	Adaptive   []series.Point
	Fixed      []series.Point
	Evals      int // derivative evaluations of the adaptive stepper
	FixedEvals int
}

// Compare integrates cfg's initial state for cfg.Duration seconds with both
// steppers, sampling drift every sampleDt. RK4 uses a fixed step of dt.
func Compare(ctx context.Context, cfg *config.Config, dt, sampleDt float64) (*Comparison, error) {
	model := physics.NewDoublePendulum(cfg.Params.PhysicsParams())
	x0 := cfg.InitState.State()
	e0 := model.Energies(x0).Total
	drift := func(x dynamo.State) float64 {
		if e0 == 0 {
			return 0
		}
		return math.Abs(model.Energies(x).Total-e0) / math.Abs(e0)
	}

	out := &Comparison{}

	dp := integrators.NewDormandPrince()
	x, t, h := x0.Clone(), 0.0, 0.001
	next := sampleDt
	for t < cfg.Duration {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := math.Min(h, next-t)
		xn, hNext, ok := dp.StepAdaptive(model, x, t, step)
		if ok {
			x, t = xn, t+step
			if t >= next-1e-12 {
				out.Adaptive = append(out.Adaptive, series.Point{T: t, V: drift(x)})
				next += sampleDt
			}
		} else if step <= integrators.MinStep && hNext <= integrators.MinStep {
			return nil, dynamo.ErrStepTooSmall
		}
		h = hNext
	}
	out.Evals = dp.Evaluations()

	rk := integrators.NewRK4()
	x = x0.Clone()
	next = sampleDt
	steps := int(math.Round(cfg.Duration / dt))
	for n := 0; n < steps; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x = rk.Step(model, x, float64(n)*dt, dt)
		t = float64(n+1) * dt
		if t >= next-1e-12 {
			out.Fixed = append(out.Fixed, series.Point{T: t, V: drift(x)})
			next += sampleDt
		}
	}
	out.FixedEvals = rk.Evaluations()

	return out, nil
}
