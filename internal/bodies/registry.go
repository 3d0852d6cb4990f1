// Package bodies holds the static catalog of celestial bodies the engine animates.
//
// A Registry is built once from configuration and never mutated. Descriptors
// use pointer fields for the numeric values so that a missing field can be told
// apart from an explicit zero; a missing required value is a configuration error.
package bodies

import (
	"errors"
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidDescriptor is wrapped by every descriptor validation failure.
var ErrInvalidDescriptor = errors.New("invalid body descriptor")

// Kind categorizes bodies.
type Kind int

const (
	KindStar Kind = iota
	KindPlanet
	KindMoon
)

// String returns the body kind name.
func (k Kind) String() string {
	switch k {
	case KindStar:
		return "star"
	case KindPlanet:
		return "planet"
	case KindMoon:
		return "moon"
	default:
		return "unknown"
	}
}

func parseKind(s string) (Kind, bool) {
	switch s {
	case "star":
		return KindStar, true
	case "", "planet":
		return KindPlanet, true
	default:
		return 0, false
	}
}

const (
	// EarthRadiusKm anchors the display radius compression.
	EarthRadiusKm = 6371.0
	// DisplayScale is the display radius of an Earth-sized body.
	DisplayScale = 1.5
	// MinDisplayRadius keeps tiny moons visible and pickable.
	MinDisplayRadius = 0.2

	displayExponent = 0.4
)

// DisplayRadiusFromKm compresses a physical radius into scene units.
func DisplayRadiusFromKm(km float64) float64 {
	r := DisplayScale * math.Pow(km/EarthRadiusKm, displayExponent)
	if r < MinDisplayRadius {
		return MinDisplayRadius
	}
	return r
}

// Ring is a flat planetary ring, in scene units relative to its planet.
type Ring struct {
	InnerRadius float64
	OuterRadius float64
	TiltDeg     float64 // Tilt about the planet's local X axis
	Color       colorful.Color
}

// Moon is a body orbiting a planet. Its orbit radius is relative to the parent.
type Moon struct {
	ID            string
	Name          string
	DisplayRadius float64
	OrbitRadius   float64
	OrbitSpeed    float64
	SpinSpeed     float64
	Color         colorful.Color
}

// CelestialBody is a star or planet with its moons.
type CelestialBody struct {
	ID            string
	Name          string
	Kind          Kind
	DisplayRadius float64
	OrbitRadius   float64 // Distance from the star, scene units
	OrbitSpeed    float64 // Relative angular speed, scaled by the orbit baseline
	SpinSpeed     float64 // Relative spin speed; negative is retrograde
	Color         colorful.Color
	Ring          *Ring
	Moons         []Moon
}

// Entry is the kinematic shape shared by planets, stars and moons.
type Entry struct {
	ID            string
	Name          string
	Kind          Kind
	ParentID      string // Empty for top-level bodies
	DisplayRadius float64
	OrbitRadius   float64
	OrbitSpeed    float64
	SpinSpeed     float64
	Color         colorful.Color
}

// Registry is the immutable, ordered body catalog.
type Registry struct {
	bodies []CelestialBody
	star   int
	index  map[string]Entry
}

// NewRegistry validates descriptors and builds a registry. Exactly one star is
// required and identifiers must be unique across planets and moons.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrInvalidDescriptor)
	}

	r := &Registry{
		star:  -1,
		index: make(map[string]Entry),
	}

	for i, d := range descs {
		body, err := d.body()
		if err != nil {
			return nil, fmt.Errorf("body #%d: %w", i, err)
		}
		if body.Kind == KindStar {
			if r.star >= 0 {
				return nil, fmt.Errorf("%w: %q is a second star", ErrInvalidDescriptor, body.ID)
			}
			r.star = len(r.bodies)
		}
		if err := r.addEntry(Entry{
			ID:            body.ID,
			Name:          body.Name,
			Kind:          body.Kind,
			DisplayRadius: body.DisplayRadius,
			OrbitRadius:   body.OrbitRadius,
			OrbitSpeed:    body.OrbitSpeed,
			SpinSpeed:     body.SpinSpeed,
			Color:         body.Color,
		}); err != nil {
			return nil, err
		}
		for _, m := range body.Moons {
			if err := r.addEntry(Entry{
				ID:            m.ID,
				Name:          m.Name,
				Kind:          KindMoon,
				ParentID:      body.ID,
				DisplayRadius: m.DisplayRadius,
				OrbitRadius:   m.OrbitRadius,
				OrbitSpeed:    m.OrbitSpeed,
				SpinSpeed:     m.SpinSpeed,
				Color:         m.Color,
			}); err != nil {
				return nil, err
			}
		}
		r.bodies = append(r.bodies, body)
	}

	if r.star < 0 {
		return nil, fmt.Errorf("%w: no star in catalog", ErrInvalidDescriptor)
	}
	return r, nil
}

func (r *Registry) addEntry(e Entry) error {
	if _, dup := r.index[e.ID]; dup {
		return fmt.Errorf("%w: duplicate identifier %q", ErrInvalidDescriptor, e.ID)
	}
	r.index[e.ID] = e
	return nil
}

// Star returns the catalog's star.
func (r *Registry) Star() CelestialBody {
	return r.bodies[r.star].clone()
}

// Bodies returns all top-level bodies (star and planets) in catalog order.
func (r *Registry) Bodies() []CelestialBody {
	out := make([]CelestialBody, len(r.bodies))
	for i, b := range r.bodies {
		out[i] = b.clone()
	}
	return out
}

// Planets returns the non-star top-level bodies in catalog order.
func (r *Registry) Planets() []CelestialBody {
	var out []CelestialBody
	for i, b := range r.bodies {
		if i == r.star {
			continue
		}
		out = append(out, b.clone())
	}
	return out
}

// Lookup returns the entry for any body, including moons.
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.index[id]
	return e, ok
}

// Len returns the number of bodies including moons.
func (r *Registry) Len() int {
	return len(r.index)
}

func (b CelestialBody) clone() CelestialBody {
	if b.Ring != nil {
		ring := *b.Ring
		b.Ring = &ring
	}
	if b.Moons != nil {
		moons := make([]Moon, len(b.Moons))
		copy(moons, b.Moons)
		b.Moons = moons
	}
	return b
}
