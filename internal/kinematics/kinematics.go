// Package kinematics advances orbital and rotational state of every body.
//
// Orbits are prescribed circles, not integrated forces. Angles are computed
// from absolute time on every call so that numeric error never accumulates.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/scene"
)

const (
	// OrbitBaseline converts a body's relative orbit speed to radians per second.
	OrbitBaseline = 0.2
	// SpinBaseline converts a body's relative spin speed to radians per second.
	SpinBaseline = 0.5

	// WobbleAmplitude bounds the cosmetic vertical bob, in scene units.
	WobbleAmplitude = 0.05
	// WobbleFrequency is the bob's angular frequency in radians per second.
	WobbleFrequency = 0.7
)

// SpinAngle returns a body's self-rotation at elapsed time t.
// It does not depend on the orbit speed multiplier.
func SpinAngle(t, spinSpeed float64) float64 {
	return t * spinSpeed * SpinBaseline
}

// OrbitAngle returns a body's orbital angle at time t under multiplier s.
func OrbitAngle(t, orbitSpeed, s float64) float64 {
	return t * orbitSpeed * OrbitBaseline * s
}

// Wobble is the vertical offset shared by every orbiting body.
func Wobble(t float64) float64 {
	return WobbleAmplitude * math.Sin(WobbleFrequency*t)
}

// LocalPosition places a body on its orbit circle in the parent's frame.
func LocalPosition(orbitRadius, angle, t float64) r3.Vec {
	return r3.Vec{
		X: orbitRadius * math.Cos(angle),
		Y: Wobble(t),
		Z: orbitRadius * math.Sin(angle),
	}
}

// Time is the pair of clocks the updater reads.
//
// Elapsed is unscaled simulation time and drives spin and wobble. Orbit is the
// integral of the speed multiplier over time, so a change of multiplier bends
// the orbit rate from that instant on instead of jumping every body to a new
// angle. With a constant multiplier s, Orbit == s*Elapsed.
type Time struct {
	Elapsed float64
	Orbit   float64
}

// At returns the Time reached after t seconds at a constant multiplier s.
func At(t, s float64) Time {
	return Time{Elapsed: t, Orbit: t * s}
}

type track struct {
	id          string
	orbitRadius float64
	orbitSpeed  float64
	spinSpeed   float64
	fixed       bool // The star stays at its parent's origin
}

// Updater writes body transforms into a scene graph.
type Updater struct {
	tracks []track
}

// NewUpdater captures the kinematic parameters of every body in reg.
func NewUpdater(reg *bodies.Registry) *Updater {
	u := &Updater{}
	for _, b := range reg.Bodies() {
		u.tracks = append(u.tracks, track{
			id:          b.ID,
			orbitRadius: b.OrbitRadius,
			orbitSpeed:  b.OrbitSpeed,
			spinSpeed:   b.SpinSpeed,
			fixed:       b.Kind == bodies.KindStar,
		})
		for _, m := range b.Moons {
			u.tracks = append(u.tracks, track{
				id:          m.ID,
				orbitRadius: m.OrbitRadius,
				orbitSpeed:  m.OrbitSpeed,
				spinSpeed:   m.SpinSpeed,
			})
		}
	}
	return u
}

// Apply sets every body's local position and spin for time tm. Moons are
// positioned inside their planet's frame, so the graph composes the rest.
// Bodies without a live node are skipped.
func (u *Updater) Apply(g *scene.Graph, tm Time) {
	for _, tr := range u.tracks {
		n, ok := g.LookupNode(tr.id)
		if !ok {
			continue
		}
		n.Spin = SpinAngle(tm.Elapsed, tr.spinSpeed)
		if tr.fixed {
			n.Local.Position = r3.Vec{}
			continue
		}
		n.Local.Position = LocalPosition(tr.orbitRadius, OrbitAngle(tm.Orbit, tr.orbitSpeed, 1), tm.Elapsed)
	}
}

// Drift advances the asteroid swarm by dt seconds. A particle that leaves the
// shell has the radial component of its velocity reflected and is put back
// on the boundary it crossed.
func Drift(g *scene.Graph, dt float64) {
	n, ok := g.LookupNode(scene.AsteroidsID)
	if !ok || dt <= 0 {
		return
	}
	inner, outer := n.InnerRadius, n.Radius
	for i := range n.Points {
		p := &n.Points[i]
		p.Position = r3.Add(p.Position, r3.Scale(dt, p.Velocity))

		r := r3.Norm(p.Position)
		if r == 0 {
			continue
		}
		normal := r3.Scale(1/r, p.Position)
		radial := r3.Dot(p.Velocity, normal)
		switch {
		case r > outer:
			p.Position = r3.Scale(outer, normal)
			if radial > 0 {
				p.Velocity = r3.Sub(p.Velocity, r3.Scale(2*radial, normal))
			}
		case r < inner:
			p.Position = r3.Scale(inner, normal)
			if radial < 0 {
				p.Velocity = r3.Sub(p.Velocity, r3.Scale(2*radial, normal))
			}
		}
	}
}
