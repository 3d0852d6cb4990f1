package engine

import (
	"math"

	"github.com/litescript/ls-orrery/internal/kinematics"
)

// Speed multiplier bounds.
const (
	MinSpeed     = 0.1
	MaxSpeed     = 5.0
	DefaultSpeed = 1.0
	DefaultStep  = 0.25
)

// Clock is the simulation clock. Elapsed advances with wall time; the orbit
// clock advances with wall time scaled by the speed multiplier.
type Clock struct {
	elapsed float64
	orbit   float64
	speed   float64
	step    float64
}

// NewClock creates a clock at zero with the given multiplier and step.
func NewClock(speed, step float64) *Clock {
	if step <= 0 {
		step = DefaultStep
	}
	c := &Clock{step: step}
	c.SetSpeed(speed)
	return c
}

// ClampSpeed forces s into [MinSpeed, MaxSpeed]. NaN maps to the default.
func ClampSpeed(s float64) float64 {
	if math.IsNaN(s) {
		return DefaultSpeed
	}
	return math.Max(MinSpeed, math.Min(MaxSpeed, s))
}

// Advance moves both clocks forward by dt wall seconds. Non-positive dt is a no-op.
func (c *Clock) Advance(dt float64) {
	if !(dt > 0) {
		return
	}
	c.elapsed += dt
	c.orbit += dt * c.speed
}

// SetSpeed sets the multiplier, clamped.
func (c *Clock) SetSpeed(s float64) {
	c.speed = ClampSpeed(s)
}

// SpeedUp raises the multiplier by one step.
func (c *Clock) SpeedUp() float64 {
	c.SetSpeed(c.speed + c.step)
	return c.speed
}

// SpeedDown lowers the multiplier by one step.
func (c *Clock) SpeedDown() float64 {
	c.SetSpeed(c.speed - c.step)
	return c.speed
}

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// Elapsed returns unscaled seconds since the scene started.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Time returns the clocks in the form the kinematics updater reads.
func (c *Clock) Time() kinematics.Time {
	return kinematics.Time{Elapsed: c.elapsed, Orbit: c.orbit}
}
