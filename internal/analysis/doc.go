// Package analysis turns recorded pendulum history into chart data.
//
//   - [Process]: series selection, viewport, RDP simplification, downsampling
//   - [PhasePortrait]: index-aligned pairing of two series
//   - [PhasePortraitToASCII]: terminal rendering of a portrait or section
//   - [Lyapunov]: largest exponent estimate via renormalised separation
//
// Histories store angles in radians with theta2 relative to the first rod.
// Selection converts angles to degrees and theta2 to the absolute angle of
// the lower rod:
//
//	pts := analysis.Process(driver.History(), analysis.Query{
//	    Series: analysis.Theta2,
//	    Min:    0, Max: 10,
//	    Simplify: true, Epsilon: 0.5,
//	})
package analysis
