package engine

import (
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/labels"
	"github.com/litescript/ls-orrery/internal/scene"
)

// View is everything a renderer reads for one frame. Graph and Camera are
// shared with the engine and must be treated as read-only.
type View struct {
	Graph  *scene.Graph
	Camera *camera.Controller
	Labels []labels.Sprite

	ShowLabels    bool
	ShowGuides    bool
	ShowStarfield bool

	Selected string
	Speed    float64
	Elapsed  float64
	Frame    uint64
}

// View returns the current frame view.
func (e *Engine) View() View {
	return View{
		Graph:         e.graph,
		Camera:        e.cam,
		Labels:        e.labels.Sprites(),
		ShowLabels:    e.labels.Visible(),
		ShowGuides:    e.showGuides,
		ShowStarfield: e.showStarfield,
		Selected:      e.selected,
		Speed:         e.clock.Speed(),
		Elapsed:       e.clock.Elapsed(),
		Frame:         e.frames,
	}
}
