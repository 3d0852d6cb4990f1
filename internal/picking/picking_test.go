package picking

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/kinematics"
	"github.com/litescript/ls-orrery/internal/scene"
)

func newCamera() *camera.Controller {
	c := camera.New(camera.DefaultOptions())
	c.Resize(120, 40)
	return c
}

func sphere(t *testing.T, g *scene.Graph, id string, pos r3.Vec, radius float64, pickable bool) {
	t.Helper()
	if _, err := g.CreateNode(scene.NoParent, scene.NodeSpec{
		Kind:       scene.KindPlanet,
		Identifier: id,
		Pickable:   pickable,
		Radius:     radius,
		Local:      scene.Translation(pos),
	}); err != nil {
		t.Fatal(err)
	}
}

func TestPickKnownBody(t *testing.T) {
	reg := bodies.Default()
	g, err := scene.Build(reg, scene.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()
	kinematics.NewUpdater(reg).Apply(g, kinematics.At(0, 1))

	cam := newCamera()
	for _, id := range []string{"sun", "earth", "jupiter"} {
		pos, _ := g.Locate(id)
		p, ok := cam.Project(pos)
		if !ok {
			t.Fatalf("%s not in view", id)
		}
		hit, ok := Pick(p.X, p.Y, cam, g)
		if !ok || hit.Identifier != id {
			t.Errorf("Pick at %s's center = %+v, %v", id, hit, ok)
		}
	}
}

func TestPickNearestWins(t *testing.T) {
	g := scene.NewGraph()
	cam := newCamera()
	_, dir := cam.Ray(0, 0)

	sphere(t, g, "far", r3.Vec{}, 5, true)
	sphere(t, g, "near", r3.Add(cam.Eye(), r3.Scale(40, dir)), 2, true)

	hit, ok := Pick(0, 0, cam, g)
	if !ok || hit.Identifier != "near" {
		t.Errorf("Pick = %+v, %v; want near", hit, ok)
	}
	if !scalar.EqualWithinAbs(hit.Distance, 38, 1e-6) {
		t.Errorf("distance = %v, want 38", hit.Distance)
	}
}

func TestPickTieKeepsTraversalOrder(t *testing.T) {
	g := scene.NewGraph()
	sphere(t, g, "first", r3.Vec{}, 5, true)
	sphere(t, g, "second", r3.Vec{}, 5, true)

	hit, ok := Pick(0, 0, newCamera(), g)
	if !ok || hit.Identifier != "first" {
		t.Errorf("Pick = %+v, %v; want first", hit, ok)
	}
}

func TestPickMisses(t *testing.T) {
	g := scene.NewGraph()
	sphere(t, g, "sun", r3.Vec{}, 5, true)
	// A large decorative node at the center of view must not be hit.
	if _, err := g.CreateNode(scene.NoParent, scene.NodeSpec{
		Kind:       scene.KindOrbitGuide,
		Identifier: "guide",
		Radius:     100,
	}); err != nil {
		t.Fatal(err)
	}
	cam := newCamera()

	tests := []struct {
		name string
		x, y float64
	}{
		{"empty corner", 0.95, 0.95},
		{"outside viewport", 1.5, 0},
		{"below viewport", 0, -1.01},
	}
	for _, tt := range tests {
		if hit, ok := Pick(tt.x, tt.y, cam, g); ok {
			t.Errorf("%s: got %+v", tt.name, hit)
		}
	}

	// Only non-pickable nodes along the ray.
	g2 := scene.NewGraph()
	sphere(t, g2, "hidden", r3.Vec{}, 5, false)
	if hit, ok := Pick(0, 0, cam, g2); ok {
		t.Errorf("non-pickable node picked: %+v", hit)
	}
}

func TestPickDisposedBody(t *testing.T) {
	g := scene.NewGraph()
	sphere(t, g, "sun", r3.Vec{}, 5, true)
	id, _ := g.Lookup("sun")
	g.Dispose(id)

	if _, ok := Pick(0, 0, newCamera(), g); ok {
		t.Error("disposed body picked")
	}
	if _, ok := Pick(0, 0, nil, nil); ok {
		t.Error("nil camera and graph should miss")
	}
}

func TestRaySphere(t *testing.T) {
	dir := r3.Vec{Z: -1}
	tests := []struct {
		name   string
		origin r3.Vec
		center r3.Vec
		want   float64
		ok     bool
	}{
		{"front", r3.Vec{Z: 10}, r3.Vec{}, 8, true},
		{"inside", r3.Vec{}, r3.Vec{}, 2, true},
		{"behind", r3.Vec{Z: -10}, r3.Vec{}, 0, false},
		{"beside", r3.Vec{X: 3, Z: 10}, r3.Vec{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := RaySphere(tt.origin, dir, tt.center, 2)
		if ok != tt.ok || !scalar.EqualWithinAbs(got, tt.want, 1e-9) {
			t.Errorf("%s: RaySphere = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
