package labels

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/scene"
)

const tol = 1e-9

func near(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < tol
}

func testGraph(t *testing.T) *scene.Graph {
	t.Helper()
	g := scene.NewGraph()
	planet, err := g.CreateNode(scene.NoParent, scene.NodeSpec{
		Kind: scene.KindPlanet, Identifier: "earth", Name: "Earth",
		Pickable: true, Labeled: true, Radius: 1.5,
		Local: scene.Translation(r3.Vec{X: 30}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.CreateNode(planet, scene.NodeSpec{
		Kind: scene.KindMoon, Identifier: "moon",
		Pickable: true, Labeled: true, Radius: 0.4,
		Local: scene.Translation(r3.Vec{X: 3}),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.CreateNode(scene.NoParent, scene.NodeSpec{
		Kind: scene.KindOrbitGuide, Identifier: "earth/orbit", Radius: 30,
	}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestSpritesAnchorAboveBodies(t *testing.T) {
	o := New(testGraph(t), 0.5, true)
	o.Update(r3.Vec{Z: 100})

	sprites := o.Sprites()
	if len(sprites) != 2 {
		t.Fatalf("got %d sprites, want 2 (guides are not labeled)", len(sprites))
	}

	want := map[string]r3.Vec{
		"earth": {X: 30, Y: 2},
		"moon":  {X: 33, Y: 0.9},
	}
	for _, s := range sprites {
		if !s.Live || !near(s.Position, want[s.Identifier]) {
			t.Errorf("%s at %v (live=%v), want %v", s.Identifier, s.Position, s.Live, want[s.Identifier])
		}
	}
	if sprites[0].Text != "Earth" || sprites[1].Text != "moon" {
		t.Errorf("texts = %q, %q", sprites[0].Text, sprites[1].Text)
	}
}

func TestFacingPointsAtEye(t *testing.T) {
	eyes := []r3.Vec{
		{Z: 100},
		{X: -40, Y: 60, Z: 20},
		{X: 5, Y: -80, Z: -3},
		{X: 30, Y: 2, Z: -50},
	}
	pos := r3.Vec{X: 30, Y: 2}
	for _, eye := range eyes {
		got := Facing(pos, eye).Rotate(r3.Vec{Z: 1})
		want := r3.Unit(r3.Sub(eye, pos))
		if !near(got, want) {
			t.Errorf("eye %v: +Z maps to %v, want %v", eye, got, want)
		}
	}
}

func TestFacingIsRecomputedNotAccumulated(t *testing.T) {
	o := New(testGraph(t), DefaultOffset, true)
	eye := r3.Vec{X: 10, Y: 40, Z: 90}

	o.Update(eye)
	first := o.Sprites()[0].Facing
	for i := 0; i < 1000; i++ {
		o.Update(r3.Vec{X: float64(i), Y: -20, Z: 5})
	}
	o.Update(eye)

	if got := o.Sprites()[0].Facing; got != first {
		t.Errorf("facing drifted: %v vs %v", got, first)
	}
}

func TestToggleRebuildsInOneBatch(t *testing.T) {
	o := New(testGraph(t), DefaultOffset, true)
	start := o.Rebuilds()

	if o.Toggle() {
		t.Fatal("Toggle should hide labels")
	}
	if n := len(o.Sprites()); n != 0 {
		t.Errorf("hidden overlay has %d sprites", n)
	}
	if !o.Toggle() {
		t.Fatal("Toggle should show labels")
	}
	if n := len(o.Sprites()); n != 2 {
		t.Errorf("shown overlay has %d sprites, want 2", n)
	}
	if o.Rebuilds() != start+2 {
		t.Errorf("rebuilds = %d, want %d", o.Rebuilds(), start+2)
	}
}

func TestMissingBodySkipsSprite(t *testing.T) {
	g := testGraph(t)
	o := New(g, DefaultOffset, true)
	id, _ := g.Lookup("moon")
	g.Dispose(id)

	o.Update(r3.Vec{Z: 100})
	for _, s := range o.Sprites() {
		switch s.Identifier {
		case "moon":
			if s.Live {
				t.Error("disposed moon's sprite still live")
			}
		case "earth":
			if !s.Live {
				t.Error("earth's sprite should stay live")
			}
		}
	}
}

func TestDefaultSceneLabelsEveryBody(t *testing.T) {
	reg := bodies.Default()
	g, err := scene.Build(reg, scene.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	o := New(g, DefaultOffset, true)
	if n := len(o.Sprites()); n != reg.Len() {
		t.Errorf("got %d sprites, want one per body (%d)", n, reg.Len())
	}
}
