// Package poincare detects crossings of the theta1 = 0 section.
package poincare

import (
	"math"
	"time"
)

const (
	// AngleWindow bounds |theta1| at a crossing, in radians.
	AngleWindow = 0.15
	// MinOmega is the minimum omega1 for a crossing, in rad/s.
	MinOmega = 0.05
	// FlashDuration is how long the visual flag stays raised.
	FlashDuration = 250 * time.Millisecond
)

// Crossing reports what a single observation did.
type Crossing struct {
	Triggered bool
	// Raised is set when the flag went from lowered to raised.
	Raised bool
	Point  [2]float64 // (theta2_rel, omega2_rel)
}

// Detector watches successive theta1 values for a sign change near zero with
// positive angular velocity. The flag it raises is lowered by a deadline
// rather than a timer, so nothing ever blocks.
type Detector struct {
	prev     float64
	raised   bool
	deadline time.Time
}

func NewDetector(theta1 float64) *Detector {
	return &Detector{prev: theta1}
}

// Observe checks the step ending at theta1 against the previous one.
func (d *Detector) Observe(now time.Time, theta1, omega1, theta2r, omega2r float64) Crossing {
	prev := d.prev
	d.prev = theta1

	signChanged := (prev < 0 && theta1 >= 0) || (prev > 0 && theta1 <= 0)
	if !signChanged || math.Abs(theta1) >= AngleWindow || omega1 <= MinOmega {
		return Crossing{}
	}

	c := Crossing{Triggered: true, Point: [2]float64{theta2r, omega2r}}
	if !d.raised {
		d.raised = true
		c.Raised = true
	}
	d.deadline = now.Add(FlashDuration)
	return c
}

// Expire lowers the flag once its deadline has passed and reports whether it
// did so.
func (d *Detector) Expire(now time.Time) bool {
	if !d.raised || now.Before(d.deadline) {
		return false
	}
	d.raised = false
	return true
}

// Flash reports whether the flag is raised at now.
func (d *Detector) Flash(now time.Time) bool {
	return d.raised && now.Before(d.deadline)
}

// Reset primes the detector with a new starting angle and lowers the flag.
func (d *Detector) Reset(theta1 float64) {
	d.prev = theta1
	d.raised = false
	d.deadline = time.Time{}
}
