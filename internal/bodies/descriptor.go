package bodies

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Descriptor is the configuration shape of a body. Nil numeric fields are
// missing; see NewRegistry for the required set.
type Descriptor struct {
	ID            string          `mapstructure:"id" json:"id"`
	Name          string          `mapstructure:"name" json:"name,omitempty"`
	Kind          string          `mapstructure:"kind" json:"kind,omitempty"` // "star" or "planet"
	RadiusKm      *float64        `mapstructure:"radius_km" json:"radius_km,omitempty"`
	DisplayRadius *float64        `mapstructure:"display_radius" json:"display_radius,omitempty"`
	OrbitRadius   *float64        `mapstructure:"orbit_radius" json:"orbit_radius,omitempty"`
	OrbitSpeed    *float64        `mapstructure:"orbit_speed" json:"orbit_speed,omitempty"`
	SpinSpeed     *float64        `mapstructure:"spin_speed" json:"spin_speed,omitempty"`
	Color         string          `mapstructure:"color" json:"color,omitempty"`
	Ring          *RingDescriptor `mapstructure:"ring" json:"ring,omitempty"`
	Moons         []Descriptor    `mapstructure:"moons" json:"moons,omitempty"`
}

// RingDescriptor configures a planetary ring.
type RingDescriptor struct {
	InnerRadius *float64 `mapstructure:"inner_radius" json:"inner_radius,omitempty"`
	OuterRadius *float64 `mapstructure:"outer_radius" json:"outer_radius,omitempty"`
	TiltDeg     float64  `mapstructure:"tilt_deg" json:"tilt_deg,omitempty"`
	Color       string   `mapstructure:"color" json:"color,omitempty"`
}

// F returns a pointer to v, for building descriptors in code.
func F(v float64) *float64 {
	return &v
}

var defaultColor = colorful.Color{R: 0.8, G: 0.8, B: 0.8}

func invalid(id, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %q: %s", ErrInvalidDescriptor, id, fmt.Sprintf(format, args...))
}

func (d Descriptor) displayRadius() (float64, error) {
	switch {
	case d.DisplayRadius != nil:
		if *d.DisplayRadius <= 0 {
			return 0, invalid(d.ID, "display_radius must be positive")
		}
		return *d.DisplayRadius, nil
	case d.RadiusKm != nil:
		if *d.RadiusKm <= 0 {
			return 0, invalid(d.ID, "radius_km must be positive")
		}
		return DisplayRadiusFromKm(*d.RadiusKm), nil
	default:
		return 0, invalid(d.ID, "missing radius_km or display_radius")
	}
}

func parseColor(id, hex string) (colorful.Color, error) {
	if hex == "" {
		return defaultColor, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, invalid(id, "bad color %q", hex)
	}
	return c, nil
}

// orbit reads the orbital fields. Stars may omit them.
func (d Descriptor) orbit(optional bool) (radius, orbitSpeed, spinSpeed float64, err error) {
	if d.SpinSpeed == nil {
		return 0, 0, 0, invalid(d.ID, "missing spin_speed")
	}
	spinSpeed = *d.SpinSpeed

	if d.OrbitRadius == nil || d.OrbitSpeed == nil {
		if optional && d.OrbitRadius == nil && d.OrbitSpeed == nil {
			return 0, 0, spinSpeed, nil
		}
		if d.OrbitRadius == nil {
			return 0, 0, 0, invalid(d.ID, "missing orbit_radius")
		}
		return 0, 0, 0, invalid(d.ID, "missing orbit_speed")
	}
	if *d.OrbitRadius < 0 {
		return 0, 0, 0, invalid(d.ID, "orbit_radius must not be negative")
	}
	return *d.OrbitRadius, *d.OrbitSpeed, spinSpeed, nil
}

func (d Descriptor) body() (CelestialBody, error) {
	if d.ID == "" {
		return CelestialBody{}, fmt.Errorf("%w: missing id", ErrInvalidDescriptor)
	}
	kind, ok := parseKind(d.Kind)
	if !ok {
		return CelestialBody{}, invalid(d.ID, "unknown kind %q", d.Kind)
	}

	radius, err := d.displayRadius()
	if err != nil {
		return CelestialBody{}, err
	}
	orbitR, orbitSpeed, spinSpeed, err := d.orbit(kind == KindStar)
	if err != nil {
		return CelestialBody{}, err
	}
	color, err := parseColor(d.ID, d.Color)
	if err != nil {
		return CelestialBody{}, err
	}

	b := CelestialBody{
		ID:            d.ID,
		Name:          nameOr(d.Name, d.ID),
		Kind:          kind,
		DisplayRadius: radius,
		OrbitRadius:   orbitR,
		OrbitSpeed:    orbitSpeed,
		SpinSpeed:     spinSpeed,
		Color:         color,
	}

	if d.Ring != nil {
		ring, err := d.Ring.ring(d.ID, radius)
		if err != nil {
			return CelestialBody{}, err
		}
		b.Ring = &ring
	}

	for _, md := range d.Moons {
		m, err := md.moon(d.ID, radius)
		if err != nil {
			return CelestialBody{}, err
		}
		b.Moons = append(b.Moons, m)
	}
	return b, nil
}

func (d Descriptor) moon(parentID string, parentRadius float64) (Moon, error) {
	if d.ID == "" {
		return Moon{}, fmt.Errorf("%w: moon of %q: missing id", ErrInvalidDescriptor, parentID)
	}
	if len(d.Moons) > 0 || d.Ring != nil {
		return Moon{}, invalid(d.ID, "moons cannot carry moons or rings")
	}
	radius, err := d.displayRadius()
	if err != nil {
		return Moon{}, err
	}
	orbitR, orbitSpeed, spinSpeed, err := d.orbit(false)
	if err != nil {
		return Moon{}, err
	}
	if orbitR <= parentRadius {
		return Moon{}, invalid(d.ID, "orbit_radius %.2f inside parent radius %.2f", orbitR, parentRadius)
	}
	color, err := parseColor(d.ID, d.Color)
	if err != nil {
		return Moon{}, err
	}
	return Moon{
		ID:            d.ID,
		Name:          nameOr(d.Name, d.ID),
		DisplayRadius: radius,
		OrbitRadius:   orbitR,
		OrbitSpeed:    orbitSpeed,
		SpinSpeed:     spinSpeed,
		Color:         color,
	}, nil
}

func (r RingDescriptor) ring(id string, planetRadius float64) (Ring, error) {
	if r.InnerRadius == nil || r.OuterRadius == nil {
		return Ring{}, invalid(id, "ring needs inner_radius and outer_radius")
	}
	if *r.InnerRadius <= planetRadius || *r.OuterRadius <= *r.InnerRadius {
		return Ring{}, invalid(id, "ring radii must satisfy planet < inner < outer")
	}
	color, err := parseColor(id, r.Color)
	if err != nil {
		return Ring{}, err
	}
	return Ring{
		InnerRadius: *r.InnerRadius,
		OuterRadius: *r.OuterRadius,
		TiltDeg:     r.TiltDeg,
		Color:       color,
	}, nil
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
