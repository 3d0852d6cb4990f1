// Package engine drives one scene: it owns the scene graph, the simulation
// clock, the camera and the label overlay, and runs them in a fixed order
// once per frame.
//
// The engine is single-threaded. Input is queued with Push and applied at
// the start of the next Frame; nothing mutates the scene between frames.
package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/kinematics"
	"github.com/litescript/ls-orrery/internal/labels"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/picking"
	"github.com/litescript/ls-orrery/internal/scene"
)

// DefaultMaxFrameDelta caps a single frame's time step, so a stall (a
// suspended terminal, a slow host) does not fling bodies across their orbits.
const DefaultMaxFrameDelta = 0.25

// Renderer is the render surface. Render is called once at the end of every frame.
type Renderer interface {
	Resize(width, height int)
	Render(View)
}

// Recorder receives per-frame measurements. All methods must be cheap.
type Recorder interface {
	ObserveFrame(d time.Duration)
	ObservePick(hit bool)
	SetNodes(n int)
	SetSpeed(s float64)
}

// Options configures an engine.
type Options struct {
	Scene         scene.Options
	Camera        camera.Options
	Speed         float64
	SpeedStep     float64
	MaxFrameDelta float64
	ShowLabels    bool
	LabelOffset   float64
	ShowGuides    bool
	ShowStarfield bool
	LockOnSelect  bool // Selecting a body locks the camera onto it
	HistorySize   int

	Renderer Renderer
	Metrics  Recorder
	Logger   *logging.Logger
	Now      func() time.Time
}

// DefaultOptions returns the standard engine setup with no renderer.
func DefaultOptions() Options {
	return Options{
		Scene:         scene.DefaultOptions(),
		Camera:        camera.DefaultOptions(),
		Speed:         DefaultSpeed,
		SpeedStep:     DefaultStep,
		MaxFrameDelta: DefaultMaxFrameDelta,
		ShowLabels:    true,
		LabelOffset:   labels.DefaultOffset,
		ShowGuides:    true,
		ShowStarfield: true,
		LockOnSelect:  true,
		HistorySize:   32,
	}
}

// Engine is the context object for one scene lifetime: create, run frames,
// dispose.
type Engine struct {
	opts Options
	log  *logging.Logger
	now  func() time.Time

	reg     *bodies.Registry
	graph   *scene.Graph
	updater *kinematics.Updater
	cam     *camera.Controller
	labels  *labels.Overlay
	clock   *Clock

	input    queue
	sinks    []SelectionSink
	renderer Renderer
	metrics  Recorder
	history  history

	pickable      []string // Identifiers in traversal order, for focus cycling
	focus         int
	selected      string
	showGuides    bool
	showStarfield bool

	frames   uint64
	disposed bool
}

// New builds the scene for reg and returns a ready engine. A registry the
// scene cannot be built from is a configuration error.
func New(reg *bodies.Registry, opts Options) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("engine: nil body registry")
	}
	graph, err := scene.Build(reg, opts.Scene)
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.MaxFrameDelta <= 0 {
		opts.MaxFrameDelta = DefaultMaxFrameDelta
	}

	e := &Engine{
		opts:          opts,
		log:           log.With("engine"),
		now:           now,
		reg:           reg,
		graph:         graph,
		updater:       kinematics.NewUpdater(reg),
		cam:           camera.New(opts.Camera),
		labels:        labels.New(graph, opts.LabelOffset, opts.ShowLabels),
		clock:         NewClock(opts.Speed, opts.SpeedStep),
		renderer:      opts.Renderer,
		metrics:       opts.Metrics,
		history:       newHistory(opts.HistorySize),
		focus:         -1,
		showGuides:    opts.ShowGuides,
		showStarfield: opts.ShowStarfield,
	}
	graph.ForEachDescendant(graph.Root(), func(n *scene.Node) {
		if n.Pickable && n.Identifier != "" {
			e.pickable = append(e.pickable, n.Identifier)
		}
	})

	// Place everything at t=0 so queries before the first frame are valid.
	e.updater.Apply(graph, e.clock.Time())
	e.labels.Update(e.cam.Eye())

	if e.metrics != nil {
		e.metrics.SetNodes(graph.Len())
		e.metrics.SetSpeed(e.clock.Speed())
	}
	e.log.Info("scene ready: %d bodies, %d nodes", reg.Len(), graph.Len())
	return e, nil
}

// Subscribe adds a sink for "body selected" events.
func (e *Engine) Subscribe(s SelectionSink) {
	if e.disposed || s == nil {
		return
	}
	e.sinks = append(e.sinks, s)
}

// Push queues an input event for the next frame. Events pushed after
// Dispose are dropped.
func (e *Engine) Push(ev Event) {
	if e.disposed || ev == nil {
		return
	}
	e.input.push(ev)
}

// Pending returns the number of queued events.
func (e *Engine) Pending() int {
	return e.input.len()
}

// Frame runs one iteration: drain input, advance the clock, kinematics,
// camera, labels, then one render. dt is wall seconds since the previous
// frame; zero is valid, negative is treated as zero and large values are
// capped. Frame never fails and does nothing after Dispose.
func (e *Engine) Frame(dt float64) {
	if e.disposed {
		return
	}
	start := e.now()

	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	if dt > e.opts.MaxFrameDelta {
		dt = e.opts.MaxFrameDelta
	}

	for _, ev := range e.input.drain() {
		e.handle(ev)
	}

	e.clock.Advance(dt)
	e.updater.Apply(e.graph, e.clock.Time())
	kinematics.Drift(e.graph, dt*e.clock.Speed())

	e.cam.Update(dt, e.graph)
	if e.selected != "" {
		if _, ok := e.graph.Lookup(e.selected); !ok {
			e.selected = ""
		}
	}

	e.labels.Update(e.cam.Eye())

	e.frames++
	if e.renderer != nil {
		e.renderer.Render(e.View())
	}
	if e.metrics != nil {
		e.metrics.ObserveFrame(e.now().Sub(start))
	}
}

func (e *Engine) handle(ev Event) {
	switch ev := ev.(type) {
	case KeyEvent:
		e.handleKey(ev.Action)
	case ClickEvent:
		e.click(ev.X, ev.Y)
	case ResizeEvent:
		if !e.cam.Resize(ev.Width, ev.Height) {
			e.log.Debug("ignoring resize to %dx%d", ev.Width, ev.Height)
			return
		}
		if e.renderer != nil {
			e.renderer.Resize(ev.Width, ev.Height)
		}
	case RotateEvent:
		e.cam.Rotate(ev.DTheta, ev.DPhi)
	case ZoomEvent:
		e.cam.Zoom(ev.Factor)
	case PanEvent:
		e.cam.Pan(ev.DX, ev.DY)
	case ModeEvent:
		e.setMode(ev.Mode)
	}
}

func (e *Engine) handleKey(a Action) {
	switch a {
	case ActionToggleLabels:
		e.labels.Toggle()
	case ActionSpeedUp:
		e.setSpeed(e.clock.SpeedUp())
	case ActionSpeedDown:
		e.setSpeed(e.clock.SpeedDown())
	case ActionToggleAutoRotate:
		e.cam.ToggleAutoRotate()
	case ActionResetCamera:
		e.cam.Reset()
	case ActionToggleGuides:
		e.showGuides = !e.showGuides
	case ActionToggleStarfield:
		e.showStarfield = !e.showStarfield
	case ActionFocusNext:
		e.cycleFocus(1)
	case ActionFocusPrev:
		e.cycleFocus(-1)
	}
	e.log.Debug("key %s", a)
}

func (e *Engine) setSpeed(s float64) {
	if e.metrics != nil {
		e.metrics.SetSpeed(s)
	}
}

func (e *Engine) setMode(m camera.Mode) {
	err := e.cam.SetMode(m)
	if errors.Is(err, camera.ErrNoTarget) && e.selected != "" {
		err = e.cam.Lock(e.selected)
	}
	if err != nil {
		e.log.Warn("camera mode %s: %v", m, err)
	}
}

// click resolves a pointer click. A miss changes nothing.
func (e *Engine) click(x, y float64) {
	hit, ok := picking.Pick(x, y, e.cam, e.graph)
	if e.metrics != nil {
		e.metrics.ObservePick(ok)
	}
	if !ok {
		return
	}
	for i, id := range e.pickable {
		if id == hit.Identifier {
			e.focus = i
			break
		}
	}
	e.selectBody(hit.Identifier, SourcePick)
}

func (e *Engine) cycleFocus(step int) {
	n := len(e.pickable)
	if n == 0 {
		return
	}
	for tries := 0; tries < n; tries++ {
		if e.focus < 0 && step < 0 {
			e.focus = n - 1
		} else {
			e.focus = ((e.focus+step)%n + n) % n
		}
		id := e.pickable[e.focus]
		if _, ok := e.graph.Lookup(id); ok {
			e.selectBody(id, SourceFocus)
			return
		}
	}
}

// selectBody records the selection, emits it once and locks the camera if
// configured to.
func (e *Engine) selectBody(id string, src Source) {
	name := id
	if entry, ok := e.reg.Lookup(id); ok {
		name = entry.Name
	}
	sel := Selection{
		Identifier: id,
		Name:       name,
		Source:     src,
		Timestamp:  e.now(),
		SimTime:    e.clock.Elapsed(),
	}
	e.selected = id
	e.history.add(sel)

	if e.opts.LockOnSelect {
		if err := e.cam.Lock(id); err != nil {
			e.log.Warn("lock on %s: %v", id, err)
		}
	}

	e.log.Info("selected %s (%s)", id, src)
	for _, s := range e.sinks {
		s.BodySelected(sel)
	}
}

// Dispose tears the scene down: later frames are no-ops, queued input is
// dropped, sinks are detached and every scene node is released. It returns
// only after all of that is done and is safe to call more than once.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.input.drain()
	e.sinks = nil
	e.renderer = nil
	e.graph.Close()
	e.labels = labels.New(nil, 0, false)
	e.pickable = nil
	e.selected = ""
	if e.metrics != nil {
		e.metrics.SetNodes(0)
	}
	e.log.Info("scene disposed after %d frames", e.frames)
}

// Disposed reports whether Dispose has run.
func (e *Engine) Disposed() bool { return e.disposed }

// Graph returns the scene graph. Callers must not mutate it.
func (e *Engine) Graph() *scene.Graph { return e.graph }

// Camera returns the camera controller. Callers must not mutate it between frames.
func (e *Engine) Camera() *camera.Controller { return e.cam }

// Registry returns the body registry.
func (e *Engine) Registry() *bodies.Registry { return e.reg }

// Speed returns the orbit speed multiplier.
func (e *Engine) Speed() float64 { return e.clock.Speed() }

// Clock returns the simulation clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Selected returns the last selected body, if any.
func (e *Engine) Selected() string { return e.selected }

// Frames returns the number of frames run.
func (e *Engine) Frames() uint64 { return e.frames }

// RecentSelections returns the last n selections, oldest first.
func (e *Engine) RecentSelections(n int) []Selection {
	return e.history.recent(n)
}
