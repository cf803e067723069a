// Package physics provides the double pendulum model.
//
// [DoublePendulum] implements [dynamo.System] and [dynamo.Configurable]. The
// state is [theta1_abs, omega1_abs, theta2_rel, omega2_rel]: the second angle
// is measured relative to the first rod, so the absolute angle of the lower
// rod is theta1 + theta2.
//
// The model includes uniform rod masses, linear drag (-b·ω) and quadratic
// drag (-c·ω·|ω|). Angular accelerations come from solving the 2x2 mass
// matrix system; when the matrix is near-singular the model coasts with zero
// acceleration instead of failing.
//
// # Parameters
//
// Every setter clamps into its valid range and reports whether the stored
// value changed:
//
//	dp := physics.NewDoublePendulum(physics.DefaultParams())
//	if dp.SetM1(50) {
//	    // m1 is now 30
//	}
package physics
