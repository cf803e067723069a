package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step was rejected at the minimum step size.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrUnknownParam indicates a parameter name the model does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrEmptyDestination indicates a save was requested without a destination.
	ErrEmptyDestination = errors.New("dynamo: empty destination")

	// ErrNotWritable indicates the destination could not be opened for writing.
	ErrNotWritable = errors.New("dynamo: destination not writable")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
