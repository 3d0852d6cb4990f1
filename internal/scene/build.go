package scene

import (
	"fmt"
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/bodies"
)

// Identifiers of the decorative top-level nodes.
const (
	StarfieldID = "starfield"
	AsteroidsID = "asteroids"
)

// OrbitGuideID returns the identifier of a planet's orbit guide.
func OrbitGuideID(bodyID string) string {
	return bodyID + "/orbit"
}

// RingID returns the identifier of a planet's ring.
func RingID(bodyID string) string {
	return bodyID + "/ring"
}

// StarfieldOptions configures the background star shell.
type StarfieldOptions struct {
	Count  int     // Random fill stars in addition to the bright-star catalog
	Radius float64 // Shell radius, beyond the camera's maximum distance
}

// AsteroidOptions configures the asteroid swarm.
type AsteroidOptions struct {
	Count       int
	InnerRadius float64
	OuterRadius float64
	MaxSpeed    float64 // Scene units per second
}

// Options configures Build.
type Options struct {
	Starfield StarfieldOptions
	Asteroids AsteroidOptions
	Seed      int64
}

// DefaultOptions returns the standard scene layout.
func DefaultOptions() Options {
	return Options{
		Starfield: StarfieldOptions{Count: 400, Radius: 900},
		Asteroids: AsteroidOptions{
			Count:       300,
			InnerRadius: 43,
			OuterRadius: 48,
			MaxSpeed:    0.05,
		},
		Seed: 1,
	}
}

var (
	guideColor    = colorful.Color{R: 0.35, G: 0.35, B: 0.4}
	asteroidColor = colorful.Color{R: 0.55, G: 0.5, B: 0.45}
	starColor     = colorful.Color{R: 0.85, G: 0.85, B: 0.9}
)

// Build creates a graph for the registry in one pass: the star, each planet
// with its orbit guide, ring and moons, then the asteroid swarm and starfield.
// Creation order is also picking traversal order.
func Build(reg *bodies.Registry, opts Options) (*Graph, error) {
	g := NewGraph()
	rng := rand.New(rand.NewSource(opts.Seed))

	for _, b := range reg.Bodies() {
		if err := addBody(g, b); err != nil {
			g.Close()
			return nil, err
		}
	}

	if opts.Asteroids.Count > 0 {
		if _, err := g.CreateNode(NoParent, NodeSpec{
			Kind:        KindAsteroids,
			Identifier:  AsteroidsID,
			Radius:      opts.Asteroids.OuterRadius,
			InnerRadius: opts.Asteroids.InnerRadius,
			Color:       asteroidColor,
			Local:       Identity(),
			Points:      asteroidPoints(rng, opts.Asteroids),
		}); err != nil {
			g.Close()
			return nil, err
		}
	}

	if opts.Starfield.Radius > 0 {
		if _, err := g.CreateNode(NoParent, NodeSpec{
			Kind:       KindStarfield,
			Identifier: StarfieldID,
			Radius:     opts.Starfield.Radius,
			Color:      starColor,
			Local:      Identity(),
			Points:     starfieldPoints(rng, opts.Starfield.Count, opts.Starfield.Radius),
		}); err != nil {
			g.Close()
			return nil, err
		}
	}

	return g, nil
}

func addBody(g *Graph, b bodies.CelestialBody) error {
	kind := KindPlanet
	if b.Kind == bodies.KindStar {
		kind = KindStar
	} else if b.OrbitRadius > 0 {
		if _, err := g.CreateNode(NoParent, NodeSpec{
			Kind:       KindOrbitGuide,
			Identifier: OrbitGuideID(b.ID),
			Radius:     b.OrbitRadius,
			Color:      guideColor,
			Local:      Identity(),
		}); err != nil {
			return fmt.Errorf("orbit guide for %q: %w", b.ID, err)
		}
	}

	planet, err := g.CreateNode(NoParent, NodeSpec{
		Kind:       kind,
		Identifier: b.ID,
		Name:       b.Name,
		Pickable:   true,
		Labeled:    true,
		Radius:     b.DisplayRadius,
		Color:      b.Color,
		Local:      Translation(r3.Vec{X: b.OrbitRadius}),
	})
	if err != nil {
		return fmt.Errorf("body %q: %w", b.ID, err)
	}

	if b.Ring != nil {
		if _, err := g.CreateNode(planet, NodeSpec{
			Kind:        KindRing,
			Identifier:  RingID(b.ID),
			Radius:      b.Ring.OuterRadius,
			InnerRadius: b.Ring.InnerRadius,
			Color:       b.Ring.Color,
			Local:       Rotated(b.Ring.TiltDeg*math.Pi/180, r3.Vec{X: 1}),
		}); err != nil {
			return fmt.Errorf("ring of %q: %w", b.ID, err)
		}
	}

	for _, m := range b.Moons {
		if _, err := g.CreateNode(planet, NodeSpec{
			Kind:       KindMoon,
			Identifier: m.ID,
			Name:       m.Name,
			Pickable:   true,
			Labeled:    true,
			Radius:     m.DisplayRadius,
			Color:      m.Color,
			Local:      Translation(r3.Vec{X: m.OrbitRadius}),
		}); err != nil {
			return fmt.Errorf("moon %q of %q: %w", m.ID, b.ID, err)
		}
	}
	return nil
}

// asteroidPoints scatters particles in a spherical shell, each with a small
// random drift velocity.
func asteroidPoints(rng *rand.Rand, opts AsteroidOptions) []Point {
	points := make([]Point, opts.Count)
	for i := range points {
		r := opts.InnerRadius + rng.Float64()*(opts.OuterRadius-opts.InnerRadius)
		points[i] = Point{
			Position: r3.Scale(r, randomUnit(rng)),
			Velocity: r3.Scale(rng.Float64()*opts.MaxSpeed, randomUnit(rng)),
		}
	}
	return points
}
