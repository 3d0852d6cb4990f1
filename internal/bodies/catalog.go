package bodies

// DefaultDescriptors returns the built-in solar system catalog.
//
// Orbit speeds are relative to Earth's (1.0) and spin speeds to Earth's day.
// Distances are compressed scene units, not AU. Moon speeds are picked for
// legibility rather than taken from real periods.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{ID: "sun", Name: "Sun", Kind: "star", RadiusKm: F(696340), SpinSpeed: F(0.04), Color: "#FDB813"},
		{ID: "mercury", Name: "Mercury", RadiusKm: F(2439.7), OrbitRadius: F(16), OrbitSpeed: F(4.15), SpinSpeed: F(0.017), Color: "#B5B5B5"},
		{ID: "venus", Name: "Venus", RadiusKm: F(6051.8), OrbitRadius: F(22), OrbitSpeed: F(1.62), SpinSpeed: F(-0.004), Color: "#E6C27A"},
		{
			ID: "earth", Name: "Earth", RadiusKm: F(6371), OrbitRadius: F(30), OrbitSpeed: F(1.0), SpinSpeed: F(1.0), Color: "#4F7FD8",
			Moons: []Descriptor{
				{ID: "moon", Name: "Moon", RadiusKm: F(1737.4), OrbitRadius: F(3.2), OrbitSpeed: F(4.0), SpinSpeed: F(4.0), Color: "#C8C8C8"},
			},
		},
		{
			ID: "mars", Name: "Mars", RadiusKm: F(3389.5), OrbitRadius: F(38), OrbitSpeed: F(0.53), SpinSpeed: F(0.97), Color: "#C1440E",
			Moons: []Descriptor{
				{ID: "phobos", Name: "Phobos", RadiusKm: F(11.3), OrbitRadius: F(1.8), OrbitSpeed: F(10), SpinSpeed: F(10), Color: "#8C7B6B"},
				{ID: "deimos", Name: "Deimos", RadiusKm: F(6.2), OrbitRadius: F(2.6), OrbitSpeed: F(6), SpinSpeed: F(6), Color: "#A39382"},
			},
		},
		{
			ID: "jupiter", Name: "Jupiter", RadiusKm: F(69911), OrbitRadius: F(55), OrbitSpeed: F(0.084), SpinSpeed: F(2.4), Color: "#D8A875",
			Moons: []Descriptor{
				{ID: "io", Name: "Io", RadiusKm: F(1821.6), OrbitRadius: F(5.5), OrbitSpeed: F(6), SpinSpeed: F(6), Color: "#E8D45A"},
				{ID: "europa", Name: "Europa", RadiusKm: F(1560.8), OrbitRadius: F(7), OrbitSpeed: F(4), SpinSpeed: F(4), Color: "#CDBFA6"},
				{ID: "ganymede", Name: "Ganymede", RadiusKm: F(2634.1), OrbitRadius: F(9), OrbitSpeed: F(2.5), SpinSpeed: F(2.5), Color: "#A08E7A"},
				{ID: "callisto", Name: "Callisto", RadiusKm: F(2410.3), OrbitRadius: F(11.5), OrbitSpeed: F(1.5), SpinSpeed: F(1.5), Color: "#6E6253"},
			},
		},
		{
			ID: "saturn", Name: "Saturn", RadiusKm: F(58232), OrbitRadius: F(75), OrbitSpeed: F(0.034), SpinSpeed: F(2.2), Color: "#E3CF8F",
			Ring: &RingDescriptor{InnerRadius: F(4.6), OuterRadius: F(7.2), TiltDeg: 26.7, Color: "#CBB98A"},
			Moons: []Descriptor{
				{ID: "enceladus", Name: "Enceladus", RadiusKm: F(252.1), OrbitRadius: F(8), OrbitSpeed: F(5), SpinSpeed: F(5), Color: "#F2F2F2"},
				{ID: "titan", Name: "Titan", RadiusKm: F(2574.7), OrbitRadius: F(10), OrbitSpeed: F(2), SpinSpeed: F(2), Color: "#D9A54A"},
			},
		},
		{
			ID: "uranus", Name: "Uranus", RadiusKm: F(25362), OrbitRadius: F(92), OrbitSpeed: F(0.012), SpinSpeed: F(-1.4), Color: "#9FD8E0",
			Ring: &RingDescriptor{InnerRadius: F(3.0), OuterRadius: F(3.6), TiltDeg: 97.8, Color: "#7FA7AD"},
			Moons: []Descriptor{
				{ID: "titania", Name: "Titania", RadiusKm: F(788.9), OrbitRadius: F(4.5), OrbitSpeed: F(2.5), SpinSpeed: F(2.5), Color: "#B0A89E"},
			},
		},
		{
			ID: "neptune", Name: "Neptune", RadiusKm: F(24622), OrbitRadius: F(106), OrbitSpeed: F(0.006), SpinSpeed: F(1.5), Color: "#4062BB",
			Moons: []Descriptor{
				// Triton orbits retrograde.
				{ID: "triton", Name: "Triton", RadiusKm: F(1353.4), OrbitRadius: F(4.2), OrbitSpeed: F(-3), SpinSpeed: F(-3), Color: "#C9B8B0"},
			},
		},
	}
}

// Default builds the registry for the built-in catalog.
func Default() *Registry {
	r, err := NewRegistry(DefaultDescriptors())
	if err != nil {
		panic(err)
	}
	return r
}
