// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// physics model, the integrators and the simulation driver:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [AdaptiveIntegrator]: error-controlled single-step integrator
//   - [Metric]: observer of accepted integration steps
//
// # Errors
//
// Numerical failures are reported through sentinel errors such as
// [ErrInvalidState] and [ErrStepTooSmall], usually wrapped in a
// [SimulationError] carrying the step index, time and offending state.
package dynamo
