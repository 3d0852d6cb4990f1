package render

import (
	"strings"
	"testing"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/labels"
	"github.com/litescript/ls-orrery/internal/scene"
)

const (
	width  = 80
	height = 24
)

var sunColor = colorful.Color{R: 1, G: 0.8, B: 0.2}

// newScene builds a star at the origin with one planet and its orbit guide.
func newScene(t *testing.T, starRadius float64) *scene.Graph {
	t.Helper()
	g := scene.NewGraph()
	specs := []scene.NodeSpec{
		{Kind: scene.KindOrbitGuide, Identifier: scene.OrbitGuideID("rock"), Radius: 30,
			Color: colorful.Color{R: 0.4, G: 0.4, B: 0.4}, Local: scene.Identity()},
		{Kind: scene.KindStar, Identifier: "sol", Name: "Sol", Pickable: true, Labeled: true,
			Radius: starRadius, Color: sunColor, Local: scene.Identity()},
		{Kind: scene.KindPlanet, Identifier: "rock", Name: "Rock", Pickable: true, Labeled: true,
			Radius: 0.5, Color: colorful.Color{R: 0.3, G: 0.5, B: 1}, Local: scene.Translation(r3.Vec{X: 30})},
	}
	for _, spec := range specs {
		if _, err := g.CreateNode(scene.NoParent, spec); err != nil {
			t.Fatalf("CreateNode(%s): %v", spec.Identifier, err)
		}
	}
	return g
}

func newCamera() *camera.Controller {
	cam := camera.New(camera.DefaultOptions())
	cam.Resize(width, height)
	return cam
}

func newView(g *scene.Graph, cam *camera.Controller) engine.View {
	return engine.View{Graph: g, Camera: cam, ShowGuides: true, ShowStarfield: true}
}

func count(s *Surface, class Class) int {
	n := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if c, _ := s.Cell(x, y); c.Class == class {
				n++
			}
		}
	}
	return n
}

func find(s *Surface, r rune) (int, int, bool) {
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if c, _ := s.Cell(x, y); c.Rune == r {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestResizeIgnoresZeroArea(t *testing.T) {
	s := New(false)
	s.Resize(width, height)
	s.Resize(0, 10)
	s.Resize(10, 0)
	if w, h := s.Size(); w != width || h != height {
		t.Errorf("size = %dx%d, want %dx%d", w, h, width, height)
	}
	if len(s.Lines()) != height || len(s.Lines()[0]) != width {
		t.Errorf("grid not %dx%d", width, height)
	}
}

func TestRenderBeforeResize(t *testing.T) {
	s := New(false)
	s.Render(newView(newScene(t, 2), newCamera()))
	if s.Frames() != 1 {
		t.Errorf("frames = %d, want 1", s.Frames())
	}
	if s.String() != "" {
		t.Errorf("empty surface rendered %q", s.String())
	}
}

func TestStarAtCenter(t *testing.T) {
	s := New(false)
	s.Resize(width, height)
	s.Render(newView(newScene(t, 2), newCamera()))

	x, y, ok := find(s, '☉')
	if !ok {
		t.Fatalf("star glyph missing:\n%s", strings.Join(s.Lines(), "\n"))
	}
	if abs(x-width/2) > 1 || abs(y-height/2) > 1 {
		t.Errorf("star at (%d, %d), want near the center", x, y)
	}
}

func TestLargeBodyIsShadedDisc(t *testing.T) {
	s := New(false)
	s.Resize(width, height)
	s.Render(newView(newScene(t, 12), newCamera()))

	discs := count(s, ClassBody)
	if discs < 9 {
		t.Fatalf("disc covers %d cells, want a filled area", discs)
	}
	c, _ := s.Cell(width/2, height/2)
	if !strings.ContainsRune(ramp, c.Rune) {
		t.Errorf("center rune %q is not a shade glyph", c.Rune)
	}
}

func TestNearerBodyOccludes(t *testing.T) {
	g := newScene(t, 5)
	cam := newCamera()
	// Halfway between the eye and the star, on the view axis.
	front := r3.Scale(0.5, cam.Eye())
	if _, err := g.CreateNode(scene.NoParent, scene.NodeSpec{
		Kind: scene.KindMoon, Identifier: "shield", Pickable: true,
		Radius: 3, Color: colorful.Color{R: 0, G: 1, B: 0}, Local: scene.Translation(front),
	}); err != nil {
		t.Fatal(err)
	}

	s := New(false)
	s.Resize(width, height)
	s.Render(newView(g, cam))

	c, _ := s.Cell(width/2, height/2)
	if c.Class != ClassBody || c.Depth > r3.Norm(cam.Eye())*0.75 {
		t.Errorf("center depth = %v, want the nearer body", c.Depth)
	}
}

func TestBodyAtNearPlaneIsClipped(t *testing.T) {
	g := newScene(t, 2)
	cam := newCamera()
	_, up, forward := cam.Basis()
	specs := []scene.NodeSpec{
		// Centered just past the near plane, filling the whole view.
		{Kind: scene.KindPlanet, Identifier: "close", Pickable: true, Radius: 1.5,
			Color: colorful.Color{R: 0.2, G: 0.4, B: 1}, Local: scene.Translation(r3.Add(cam.Eye(), r3.Scale(0.03, forward)))},
		// Same depth, but its disc lands far off the surface.
		{Kind: scene.KindPlanet, Identifier: "beside", Pickable: true, Radius: 1.5,
			Color: colorful.Color{R: 1, G: 0.4, B: 0.2}, Local: scene.Translation(r3.Add(cam.Eye(), r3.Add(r3.Scale(0.03, forward), r3.Scale(5, up))))},
	}
	for _, spec := range specs {
		if _, err := g.CreateNode(scene.NoParent, spec); err != nil {
			t.Fatal(err)
		}
	}

	s := New(true)
	s.Resize(width, height)
	start := time.Now()
	s.Render(newView(g, cam))
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("frame took %v", d)
	}

	if n := count(s, ClassBody); n != width*height {
		t.Errorf("near body covers %d cells, want the whole surface", n)
	}
	c, _ := s.Cell(width/2, height/2)
	if c.Depth > 0.03 {
		t.Errorf("center depth = %v, want the near body", c.Depth)
	}
}

func TestGuideToggle(t *testing.T) {
	g := newScene(t, 2)
	cam := newCamera()
	s := New(false)
	s.Resize(width, height)

	v := newView(g, cam)
	s.Render(v)
	if count(s, ClassGuide) == 0 {
		t.Fatal("orbit guide not drawn")
	}

	v.ShowGuides = false
	s.Render(v)
	if n := count(s, ClassGuide); n != 0 {
		t.Errorf("%d guide cells drawn with guides hidden", n)
	}
}

func TestStarfieldToggle(t *testing.T) {
	g := newScene(t, 2)
	points := []scene.Point{
		// Directions near the view axis, clear of the orbit guide.
		{Position: r3.Vec{X: -200, Y: -315, Z: -735}, Magnitude: 0.5},
		{Position: r3.Vec{X: 150, Y: -223, Z: -774}, Magnitude: 2},
		{Position: r3.Vec{X: 0, Y: -315, Z: -735}, Magnitude: 9}, // too dim to draw
	}
	if _, err := g.CreateNode(scene.NoParent, scene.NodeSpec{
		Kind: scene.KindStarfield, Identifier: scene.StarfieldID, Radius: 900,
		Color: colorful.Color{R: 1, G: 1, B: 1}, Local: scene.Identity(), Points: points,
	}); err != nil {
		t.Fatal(err)
	}

	s := New(false)
	s.Resize(width, height)
	v := newView(g, newCamera())
	s.Render(v)
	if n := count(s, ClassStar); n != 2 {
		t.Errorf("stars drawn = %d, want 2", n)
	}

	v.ShowStarfield = false
	s.Render(v)
	if n := count(s, ClassStar); n != 0 {
		t.Errorf("stars drawn with starfield hidden = %d", n)
	}
}

func TestLabelsAndSelection(t *testing.T) {
	g := newScene(t, 2)
	cam := newCamera()
	ov := labels.New(g, labels.DefaultOffset, true)
	ov.Update(cam.Eye())

	s := New(false)
	s.Resize(width, height)
	v := newView(g, cam)
	v.Labels = ov.Sprites()
	v.ShowLabels = true
	v.Selected = "rock"
	s.Render(v)

	out := strings.Join(s.Lines(), "\n")
	if !strings.Contains(out, "Sol") {
		t.Errorf("star label missing:\n%s", out)
	}
	if !strings.Contains(out, "◄ Rock") {
		t.Errorf("selected label missing:\n%s", out)
	}
	if !strings.ContainsRune(out, '●') {
		t.Errorf("selected planet glyph missing:\n%s", out)
	}
	if _, _, ok := find(s, '☉'); !ok {
		t.Error("label overwrote the star")
	}

	v.ShowLabels = false
	s.Render(v)
	if strings.Contains(strings.Join(s.Lines(), "\n"), "Sol") {
		t.Error("labels drawn while hidden")
	}
}

func TestDefaultSceneRenders(t *testing.T) {
	reg := bodies.Default()
	opts := engine.DefaultOptions()
	s := New(true)
	opts.Renderer = s
	e, err := engine.New(reg, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	e.Push(engine.ResizeEvent{Width: width, Height: height})
	e.Frame(0.016)

	if s.Frames() != 1 {
		t.Fatalf("frames = %d", s.Frames())
	}
	if w, h := s.Size(); w != width || h != height {
		t.Fatalf("resize not forwarded: %dx%d", w, h)
	}
	if count(s, ClassBody) == 0 {
		t.Error("no bodies drawn")
	}
	if count(s, ClassLabel) == 0 {
		t.Error("no labels drawn")
	}
	if s.String() == "" {
		t.Error("empty colored output")
	}
}
