package metrics

import "github.com/san-kum/dpsim/internal/dynamo"

// StepStats summarises adaptive step control. Value is the mean accepted
// step size.
type StepStats struct {
	Accepted int
	Rejected int
	MinStep  float64
	MaxStep  float64
	sum      float64
}

func NewStepStats() *StepStats { return &StepStats{} }

func (s *StepStats) Name() string { return "mean_step" }

func (s *StepStats) Observe(sample dynamo.Sample) {
	h := sample.Step
	if s.Accepted == 0 || h < s.MinStep {
		s.MinStep = h
	}
	if h > s.MaxStep {
		s.MaxStep = h
	}
	s.sum += h
	s.Accepted++
}

func (s *StepStats) Reject(t, h float64) { s.Rejected++ }

func (s *StepStats) Value() float64 {
	if s.Accepted == 0 {
		return 0
	}
	return s.sum / float64(s.Accepted)
}

// RejectionRate is the share of attempts that were rejected.
func (s *StepStats) RejectionRate() float64 {
	total := s.Accepted + s.Rejected
	if total == 0 {
		return 0
	}
	return float64(s.Rejected) / float64(total)
}

func (s *StepStats) Reset() { *s = StepStats{} }
