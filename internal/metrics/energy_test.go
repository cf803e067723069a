package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/dpsim/internal/dynamo"
)

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(dynamo.Sample{Total: -10})
	m.Observe(dynamo.Sample{Total: -10.5})
	m.Observe(dynamo.Sample{Total: -10.1})

	assert.InDelta(t, 0.05, m.Value(), 1e-12)
	assert.InDelta(t, 0.01, m.Current(), 1e-12)
	assert.Equal(t, "energy_drift", m.Name())

	m.Reset()
	assert.Zero(t, m.Value())

	m.Observe(dynamo.Sample{Total: 4})
	assert.Zero(t, m.Value())
}

func TestEnergyDriftZeroBaseline(t *testing.T) {
	m := NewEnergyDrift()
	m.Observe(dynamo.Sample{Total: 0})
	m.Observe(dynamo.Sample{Total: 1})

	assert.Zero(t, m.Value())
	assert.Zero(t, m.Current())
}

func TestStepStats(t *testing.T) {
	s := NewStepStats()
	assert.Zero(t, s.Value())
	assert.Zero(t, s.RejectionRate())

	for _, h := range []float64{0.001, 0.004, 0.001} {
		s.Observe(dynamo.Sample{Step: h})
	}
	s.Reject(0, 0.005)

	assert.InDelta(t, 0.002, s.Value(), 1e-15)
	assert.Equal(t, 0.001, s.MinStep)
	assert.Equal(t, 0.004, s.MaxStep)
	assert.InDelta(t, 0.25, s.RejectionRate(), 1e-15)

	s.Reset()
	assert.Zero(t, s.Accepted)
	assert.Zero(t, s.Rejected)
}

func TestFlips(t *testing.T) {
	f := NewFlips()

	angles := []float64{0, 2.5, 3.0, 3.3, 4.0, 3.0, 0.5, -3.3}
	for i, a := range angles {
		f.Observe(dynamo.Sample{Time: float64(i), State: dynamo.State{a / 2, 0, a / 2, 0}})
	}

	// crosses pi at i=3, back at i=5, and -pi at i=7
	assert.Equal(t, 3.0, f.Value())
	assert.Equal(t, 3.0, f.FirstFlip)

	f.Reset()
	assert.Equal(t, -1.0, f.FirstFlip)
	f.Observe(dynamo.Sample{State: dynamo.State{math.Pi, 0, 0.5, 0}})
	assert.Zero(t, f.Value())
}
