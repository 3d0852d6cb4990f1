package scene

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Star is a cataloged star with position and brightness.
type Star struct {
	Name   string  // Common name (e.g., "Sirius", "Vega")
	RAdeg  float64 // Right Ascension in degrees (J2000)
	DecDeg float64 // Declination in degrees (J2000)
	Mag    float64 // Apparent visual magnitude (lower = brighter)
}

// brightStars anchors the starfield with recognizable stars. Coordinates are
// J2000, from the Yale Bright Star Catalog.
var brightStars = []Star{
	{"Sirius", 101.287, -16.716, -1.46},
	{"Canopus", 95.988, -52.696, -0.74},
	{"Arcturus", 213.915, 19.182, -0.05},
	{"Vega", 279.235, 38.784, 0.03},
	{"Capella", 79.172, 45.998, 0.08},
	{"Rigel", 78.634, -8.202, 0.13},
	{"Procyon", 114.826, 5.225, 0.34},
	{"Achernar", 24.429, -57.237, 0.46},
	{"Betelgeuse", 88.793, 7.407, 0.50},
	{"Hadar", 210.956, -60.373, 0.61},
	{"Altair", 297.696, 8.868, 0.76},
	{"Acrux", 186.650, -63.099, 0.76},
	{"Aldebaran", 68.980, 16.509, 0.85},
	{"Antares", 247.352, -26.432, 0.96},
	{"Spica", 201.298, -11.161, 0.97},
	{"Pollux", 116.329, 28.026, 1.14},
	{"Fomalhaut", 344.413, -29.622, 1.16},
	{"Deneb", 310.358, 45.280, 1.25},
	{"Regulus", 152.093, 11.967, 1.35},
	{"Castor", 113.650, 31.889, 1.58},
	{"Bellatrix", 81.283, 6.350, 1.64},
	{"Alnilam", 84.053, -1.202, 1.69},
	{"Alnitak", 85.190, -1.943, 1.77},
	{"Alioth", 193.507, 55.960, 1.77},
	{"Dubhe", 165.932, 61.751, 1.79},
	{"Mirfak", 51.081, 49.861, 1.79},
	{"Alkaid", 206.885, 49.313, 1.86},
	{"Polaris", 37.954, 89.264, 2.02},
	{"Mizar", 200.981, 54.925, 2.04},
	{"Mintaka", 83.002, -0.299, 2.23},
	{"Schedar", 10.127, 56.537, 2.23},
	{"Merak", 165.460, 56.382, 2.37},
	{"Phecda", 178.458, 53.695, 2.44},
	{"Megrez", 183.857, 57.033, 3.31},
}

// BrightStars returns a copy of the anchor star catalog.
func BrightStars() []Star {
	out := make([]Star, len(brightStars))
	copy(out, brightStars)
	return out
}

// StarDirection converts equatorial coordinates to a unit vector in scene
// space, where Y points to the celestial north pole.
func StarDirection(raDeg, decDeg float64) r3.Vec {
	ra := raDeg * math.Pi / 180
	dec := decDeg * math.Pi / 180
	return r3.Vec{
		X: math.Cos(dec) * math.Cos(ra),
		Y: math.Sin(dec),
		Z: -math.Cos(dec) * math.Sin(ra),
	}
}

// randomUnit returns a direction uniformly distributed on the sphere.
func randomUnit(rng *rand.Rand) r3.Vec {
	u := rng.Float64()*2 - 1
	phi := rng.Float64() * 2 * math.Pi
	s := math.Sqrt(1 - u*u)
	return r3.Vec{X: s * math.Cos(phi), Y: u, Z: s * math.Sin(phi)}
}

// starfieldPoints places the catalog plus count random fill stars on a shell.
func starfieldPoints(rng *rand.Rand, count int, radius float64) []Point {
	points := make([]Point, 0, len(brightStars)+count)
	for _, s := range brightStars {
		points = append(points, Point{
			Position:  r3.Scale(radius, StarDirection(s.RAdeg, s.DecDeg)),
			Magnitude: s.Mag,
		})
	}
	for i := 0; i < count; i++ {
		points = append(points, Point{
			Position:  r3.Scale(radius, randomUnit(rng)),
			Magnitude: 3 + rng.Float64()*2.5,
		})
	}
	return points
}
