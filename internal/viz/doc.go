// Package viz provides the terminal dashboard for the double pendulum.
//
// [Model] is a Bubble Tea model that advances a [sim.Driver] by one frame of
// wall time per tick and renders the rods on a Braille [Canvas]. Traces are
// painted incrementally from the driver's drain buffers onto their own
// canvas layers and rebuilt from the stored traces when the view changes.
//
// # Key Bindings
//
//	Space - Pause/Resume (manual control)
//	R     - Reset to the configured initial state
//	C     - Clear history and traces
//	P     - Clear the Poincaré section
//	1/2   - Toggle bob traces
//	+/-   - Double/halve simulation speed
//	Tab   - Select parameter, Up/Down to tune it
//	?     - Show help overlay
package viz
