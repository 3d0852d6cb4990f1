// Package render rasterizes a frame view onto a terminal character grid.
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/scene"
)

// Class says what last wrote a cell. Higher classes are never overwritten by
// labels.
type Class int

const (
	ClassEmpty Class = iota
	ClassStar
	ClassGuide
	ClassAsteroid
	ClassRing
	ClassBody
	ClassLabel
)

// Cell is one character of the surface.
type Cell struct {
	Rune  rune
	Color colorful.Color
	Bold  bool
	Class Class
	Depth float64
}

var blank = Cell{Rune: ' ', Depth: math.Inf(1)}

const (
	// Stars are drawn behind everything else.
	starDepth = math.MaxFloat64

	// shading ramp from dark limb to lit center
	ramp = ".:-=+*#%@"
	// bodies smaller than this many rows are drawn as a single glyph
	minDiscRows = 0.75
)

var (
	space     = colorful.Color{R: 0.04, G: 0.04, B: 0.07}
	white     = colorful.Color{R: 1, G: 1, B: 1}
	labelTint = colorful.Color{R: 0.75, G: 0.75, B: 0.78}
	focusTint = colorful.Color{R: 1, G: 0.95, B: 0.55}
)

// Surface is a depth-tested character canvas. It implements engine.Renderer.
// Not safe for concurrent use.
type Surface struct {
	width  int
	height int
	cells  []Cell
	color  bool
	frames uint64

	cam   *camera.Controller
	light r3.Vec // World position of the star
}

var _ engine.Renderer = (*Surface)(nil)

// New creates an empty surface. When color is false String emits plain text.
func New(color bool) *Surface {
	return &Surface{color: color}
}

// Resize reallocates the grid. A zero-area size is ignored.
func (s *Surface) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = width, height
	s.cells = make([]Cell, width*height)
	s.clear()
}

// Size returns the grid size in cells.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// Frames returns how many views have been rendered.
func (s *Surface) Frames() uint64 {
	return s.frames
}

// Cell returns the cell at column x, row y.
func (s *Surface) Cell(x, y int) (Cell, bool) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return Cell{}, false
	}
	return s.cells[y*s.width+x], true
}

func (s *Surface) clear() {
	for i := range s.cells {
		s.cells[i] = blank
	}
}

// Render draws v. Layers go starfield, guides, asteroids, rings and bodies,
// then labels on top.
func (s *Surface) Render(v engine.View) {
	s.frames++
	if len(s.cells) == 0 || v.Graph == nil || v.Camera == nil {
		return
	}
	s.clear()
	s.cam = v.Camera
	s.light = r3.Vec{}

	var guides, clouds, rings, discs []*scene.Node
	v.Graph.ForEachDescendant(v.Graph.Root(), func(n *scene.Node) {
		switch n.Kind {
		case scene.KindStarfield:
			if v.ShowStarfield {
				clouds = append(clouds, n)
			}
		case scene.KindAsteroids:
			clouds = append(clouds, n)
		case scene.KindOrbitGuide:
			if v.ShowGuides {
				guides = append(guides, n)
			}
		case scene.KindRing:
			rings = append(rings, n)
		case scene.KindStar:
			if p, ok := v.Graph.WorldPosition(n.ID); ok {
				s.light = p
			}
			discs = append(discs, n)
		case scene.KindPlanet, scene.KindMoon:
			discs = append(discs, n)
		}
	})

	for _, n := range clouds {
		s.drawCloud(v.Graph, n)
	}
	for _, n := range guides {
		s.drawGuide(v.Graph, n)
	}
	for _, n := range rings {
		s.drawRing(v.Graph, n)
	}
	for _, n := range discs {
		s.drawBody(v.Graph, n, n.Identifier == v.Selected && v.Selected != "")
	}
	if v.ShowLabels {
		s.drawLabels(v)
	}
}

// toCell maps NDC to a cell. Rows grow downward.
func (s *Surface) toCell(x, y float64) (col, row int, ok bool) {
	fx := (x + 1) / 2 * float64(s.width)
	fy := (1 - y) / 2 * float64(s.height)
	col, row = int(math.Floor(fx)), int(math.Floor(fy))
	return col, row, col >= 0 && col < s.width && row >= 0 && row < s.height
}

// plot writes c when it is nearer than what the cell holds.
func (s *Surface) plot(col, row int, c Cell) bool {
	if col < 0 || col >= s.width || row < 0 || row >= s.height {
		return false
	}
	if !s.visible(col, row, c.Depth) {
		return false
	}
	s.cells[row*s.width+col] = c
	return true
}

// visible reports whether a cell at depth would pass the depth test at
// (col, row). The caller keeps col and row on the surface.
func (s *Surface) visible(col, row int, depth float64) bool {
	i := row*s.width + col
	return s.cells[i].Class == ClassEmpty || depth < s.cells[i].Depth
}

func (s *Surface) plotWorld(p r3.Vec, c Cell) {
	proj, ok := s.cam.Project(p)
	if !ok {
		return
	}
	col, row, ok := s.toCell(proj.X, proj.Y)
	if !ok {
		return
	}
	if c.Depth != starDepth {
		c.Depth = proj.Depth
	}
	s.plot(col, row, c)
}

func (s *Surface) drawCloud(g *scene.Graph, n *scene.Node) {
	if n.Kind == scene.KindStarfield {
		for _, pt := range n.Points {
			proj, ok := s.cam.ProjectDirection(pt.Position)
			if !ok {
				continue
			}
			col, row, ok := s.toCell(proj.X, proj.Y)
			if !ok {
				continue
			}
			glyph := starGlyph(pt.Magnitude)
			if glyph == ' ' {
				continue
			}
			s.plot(col, row, Cell{
				Rune:  glyph,
				Color: space.BlendLab(n.Color, starBrightness(pt.Magnitude)).Clamped(),
				Class: ClassStar,
				Depth: starDepth,
			})
		}
		return
	}

	world, ok := g.WorldTransform(n.ID)
	if !ok {
		return
	}
	for _, pt := range n.Points {
		s.plotWorld(world.Apply(pt.Position), Cell{Rune: '˙', Color: n.Color, Class: ClassAsteroid})
	}
}

// starGlyph picks a glyph by apparent magnitude; the dimmest stars are skipped.
func starGlyph(mag float64) rune {
	switch {
	case mag <= 1.0:
		return '∗'
	case mag <= 2.5:
		return '·'
	case mag <= 3.5:
		return '˙'
	case mag <= 5.5:
		return '.'
	default:
		return ' '
	}
}

func starBrightness(mag float64) float64 {
	return clamp(1-mag/7, 0.25, 1)
}

// circleSteps samples a circle densely enough to leave no gaps on screen.
func (s *Surface) circleSteps(center r3.Vec, radius float64) int {
	proj, ok := s.cam.Project(center)
	rows := float64(s.height)
	if ok {
		rows = radius * s.cam.ScreenScale(proj.Depth) * float64(s.height) / 2
	}
	steps := int(2 * math.Pi * rows * 2)
	if steps < 24 {
		steps = 24
	}
	if steps > 720 {
		steps = 720
	}
	return steps
}

func (s *Surface) drawGuide(g *scene.Graph, n *scene.Node) {
	world, ok := g.WorldTransform(n.ID)
	if !ok || n.Radius <= 0 {
		return
	}
	steps := s.circleSteps(world.Position, n.Radius)
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		local := r3.Vec{X: n.Radius * math.Cos(theta), Z: n.Radius * math.Sin(theta)}
		s.plotWorld(world.Apply(local), Cell{Rune: '·', Color: n.Color, Class: ClassGuide})
	}
}

func (s *Surface) drawRing(g *scene.Graph, n *scene.Node) {
	world, ok := g.WorldTransform(n.ID)
	if !ok || n.Radius <= 0 {
		return
	}
	bands := []float64{n.InnerRadius, (n.InnerRadius + n.Radius) / 2, n.Radius}
	for _, r := range bands {
		steps := s.circleSteps(world.Position, r)
		for i := 0; i < steps; i++ {
			theta := 2 * math.Pi * float64(i) / float64(steps)
			local := r3.Vec{X: r * math.Cos(theta), Z: r * math.Sin(theta)}
			s.plotWorld(world.Apply(local), Cell{Rune: '-', Color: n.Color, Class: ClassRing})
		}
	}
}

func tinyGlyph(k scene.Kind, focused bool) rune {
	switch k {
	case scene.KindStar:
		return '☉'
	case scene.KindMoon:
		if focused {
			return '◉'
		}
		return '∘'
	default:
		if focused {
			return '●'
		}
		return '•'
	}
}

// drawBody rasterizes a shaded disc. The star is self-lit; everything else is
// lit from the star's direction.
func (s *Surface) drawBody(g *scene.Graph, n *scene.Node, focused bool) {
	center, ok := g.WorldPosition(n.ID)
	if !ok {
		return
	}
	proj, ok := s.cam.Project(center)
	if !ok {
		return
	}
	col, row, inside := s.toCell(proj.X, proj.Y)

	rows := n.Radius * s.cam.ScreenScale(proj.Depth) * float64(s.height) / 2
	if math.IsNaN(rows) {
		return
	}
	if rows < minDiscRows {
		if inside {
			c := Cell{Rune: tinyGlyph(n.Kind, focused), Color: n.Color, Bold: focused, Class: ClassBody, Depth: proj.Depth - n.Radius}
			if focused {
				c.Color = focusTint
			}
			s.plot(col, row, c)
		}
		return
	}

	right, up, forward := s.cam.Basis()
	lit := r3.Unit(r3.Sub(s.light, center))
	lightView := r3.Vec{X: r3.Dot(lit, right), Y: r3.Dot(lit, up), Z: -r3.Dot(lit, forward)}

	cols := rows * float64(s.width) / (float64(s.height) * s.cam.Aspect())
	fx := (proj.X + 1) / 2 * float64(s.width)
	fy := (1 - proj.Y) / 2 * float64(s.height)

	// A body just past the near plane spans far more cells than the surface.
	y0 := int(math.Max(math.Floor(fy-rows), 0))
	y1 := int(math.Min(math.Ceil(fy+rows), float64(s.height-1)))
	x0 := int(math.Max(math.Floor(fx-cols), 0))
	x1 := int(math.Min(math.Ceil(fx+cols), float64(s.width-1)))
	if y0 > y1 || x0 > x1 {
		return
	}

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := (float64(x) + 0.5 - fx) / cols
			dy := (fy - float64(y) - 0.5) / rows
			d2 := dx*dx + dy*dy
			if d2 > 1 {
				continue
			}
			dz := math.Sqrt(1 - d2)
			depth := proj.Depth - n.Radius*dz
			if !s.visible(x, y, depth) {
				continue
			}

			intensity := 1.0
			if n.Kind != scene.KindStar && r3.Norm(r3.Sub(s.light, center)) > 0 {
				intensity = clamp(dx*lightView.X+dy*lightView.Y+dz*lightView.Z, 0.08, 1)
			}
			color := space.BlendLab(n.Color, intensity).Clamped()
			if n.Kind == scene.KindStar {
				color = n.Color.BlendLab(white, 0.35*dz).Clamped()
			}
			s.plot(x, y, Cell{
				Rune:  shade(intensity),
				Color: color,
				Bold:  focused,
				Class: ClassBody,
				Depth: depth,
			})
		}
	}
}

func shade(intensity float64) rune {
	i := int(intensity * float64(len(ramp)-1))
	return rune(ramp[clampInt(i, 0, len(ramp)-1)])
}

// drawLabels writes each live label centered on its anchor. Labels only
// overwrite background cells, never bodies.
func (s *Surface) drawLabels(v engine.View) {
	eye := s.cam.Eye()
	for _, l := range v.Labels {
		if !l.Live {
			continue
		}
		// A sprite turned away from the eye is stale.
		if r3.Dot(l.Facing.Rotate(r3.Vec{Z: 1}), r3.Sub(eye, l.Position)) <= 0 {
			continue
		}
		proj, ok := s.cam.Project(l.Position)
		if !ok {
			continue
		}
		col, row, ok := s.toCell(proj.X, proj.Y)
		if !ok && (row < 0 || row >= s.height) {
			continue
		}
		// Seen from above, the anchor lands inside the body's own disc.
		for tries := 0; tries < 4 && row > 0 && col >= 0 && col < s.width &&
			s.cells[row*s.width+col].Class == ClassBody; tries++ {
			row--
		}

		text := l.Text
		focused := l.Identifier == v.Selected && v.Selected != ""
		if focused {
			text = "◄ " + text
		}
		runes := []rune(text)
		start := col - len(runes)/2
		for i, r := range runes {
			x := start + i
			if x < 0 || x >= s.width {
				continue
			}
			cur := &s.cells[row*s.width+x]
			if cur.Class >= ClassBody {
				continue
			}
			c := Cell{Rune: r, Color: labelTint, Class: ClassLabel, Depth: proj.Depth}
			if focused {
				c.Color, c.Bold = focusTint, true
			}
			*cur = c
		}
	}
}

// Lines returns the grid as plain text rows.
func (s *Surface) Lines() []string {
	lines := make([]string, s.height)
	for y := 0; y < s.height; y++ {
		var b strings.Builder
		for _, c := range s.cells[y*s.width : (y+1)*s.width] {
			b.WriteRune(c.Rune)
		}
		lines[y] = b.String()
	}
	return lines
}

// String returns the grid with consecutive same-style cells joined into one
// styled run.
func (s *Surface) String() string {
	if !s.color {
		return strings.Join(s.Lines(), "\n")
	}

	var b strings.Builder
	for y := 0; y < s.height; y++ {
		row := s.cells[y*s.width : (y+1)*s.width]
		for x := 0; x < len(row); {
			start := x
			for x < len(row) && sameStyle(row[start], row[x]) {
				x++
			}
			var run strings.Builder
			for _, c := range row[start:x] {
				run.WriteRune(c.Rune)
			}
			if row[start].Class == ClassEmpty {
				b.WriteString(run.String())
				continue
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(row[start].Color.Hex())).
				Bold(row[start].Bold)
			b.WriteString(style.Render(run.String()))
		}
		if y < s.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sameStyle(a, b Cell) bool {
	if a.Class == ClassEmpty || b.Class == ClassEmpty {
		return a.Class == b.Class
	}
	return a.Bold == b.Bold && a.Color.Hex() == b.Color.Hex()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
