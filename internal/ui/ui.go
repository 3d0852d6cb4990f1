// Package ui hosts the engine in a Bubble Tea program: it schedules frames,
// maps keys and mouse input to engine events and draws the HUD.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/render"
)

// hudLines is the number of rows below the canvas.
const hudLines = 2

const (
	rotateStep = 0.08 // radians per arrow key
	panStep    = 0.05 // fraction of camera distance per shift+arrow
	zoomStep   = 1.25
	dragScale  = 0.03 // radians per dragged cell
	wheelZoom  = 1.1

	// snapshotEvery is how many frames pass between published snapshots.
	snapshotEvery = 15
)

type (
	// frameMsg asks for one engine frame. gen ties it to the engine that
	// scheduled it so ticks from a disposed engine are dropped.
	frameMsg struct {
		gen int
		at  time.Time
	}
)

// Options configures the host.
type Options struct {
	Registry *bodies.Registry
	Engine   engine.Options
	FPS      int
	Color    bool
	Mode     camera.Mode // Initial camera mode

	// Sinks are subscribed to every engine, including re-initialised ones.
	Sinks []engine.SelectionSink
	// OnSnapshot, when set, receives a scene snapshot every few frames.
	OnSnapshot func(*engine.SnapshotExport)
	Logger     *logging.Logger
	Now        func() time.Time
}

// hud is shared by every copy of the model; the engine's selection sink
// writes into it during Frame.
type hud struct {
	last    engine.Selection
	hasLast bool
	fps     float64
}

// Model is the root Bubble Tea model.
type Model struct {
	opts    Options
	log     *logging.Logger
	engine  *engine.Engine
	surface *render.Surface
	hud     *hud

	gen      int
	interval time.Duration
	last     time.Time

	width  int
	height int
	ready  bool

	dragging bool
	dragged  bool
	dragX    int
	dragY    int
}

// New creates the model and its first engine.
func New(opts Options) (Model, error) {
	if opts.Registry == nil {
		return Model{}, fmt.Errorf("ui: nil body registry")
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		opts:     opts,
		log:      opts.Logger.With("ui"),
		hud:      &hud{},
		interval: time.Second / time.Duration(opts.FPS),
	}
	if err := m.start(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// start builds a fresh engine and surface under a new generation.
func (m *Model) start() error {
	m.surface = render.New(m.opts.Color)
	eopts := m.opts.Engine
	eopts.Renderer = m.surface
	eopts.Logger = m.opts.Logger
	e, err := engine.New(m.opts.Registry, eopts)
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	h := m.hud
	e.Subscribe(engine.SelectionFunc(func(s engine.Selection) {
		h.last, h.hasLast = s, true
	}))
	for _, s := range m.opts.Sinks {
		e.Subscribe(s)
	}
	if m.opts.Mode != camera.ModeOrbit {
		e.Push(engine.ModeEvent{Mode: m.opts.Mode})
	}
	if m.ready {
		e.Push(engine.ResizeEvent{Width: m.width, Height: m.canvasHeight()})
	}

	m.engine = e
	m.gen++
	m.last = time.Time{}
	return nil
}

// reinit tears the scene down and builds it again.
func (m *Model) reinit() error {
	m.engine.Dispose()
	*m.hud = hud{}
	m.log.Info("re-initialising scene (generation %d)", m.gen+1)
	return m.start()
}

// Engine returns the current engine.
func (m Model) Engine() *engine.Engine {
	return m.engine
}

// Surface returns the current render surface.
func (m Model) Surface() *render.Surface {
	return m.surface
}

// Generation counts engines created by this model.
func (m Model) Generation() int {
	return m.gen
}

func (m Model) canvasHeight() int {
	h := m.height - hudLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg{gen: gen, at: t}
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.engine.Push(engine.ResizeEvent{Width: m.width, Height: m.canvasHeight()})

	case frameMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.frame(msg.at)
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) frame(at time.Time) {
	dt := 0.0
	if !m.last.IsZero() {
		dt = at.Sub(m.last).Seconds()
	}
	m.last = at

	start := m.opts.Now()
	m.engine.Frame(dt)

	if dt > 0 {
		fps := 1 / dt
		if m.hud.fps == 0 {
			m.hud.fps = fps
		} else {
			m.hud.fps += (fps - m.hud.fps) * 0.1
		}
	}
	if m.opts.OnSnapshot != nil && m.engine.Frames()%snapshotEvery == 1 {
		m.opts.OnSnapshot(m.engine.Snapshot(start))
	}
}

var actions = map[string]engine.Action{
	"l": engine.ActionToggleLabels,
	"+": engine.ActionSpeedUp,
	"=": engine.ActionSpeedUp,
	"-": engine.ActionSpeedDown,
	"_": engine.ActionSpeedDown,
	"a": engine.ActionToggleAutoRotate,
	"r": engine.ActionResetCamera,
	"o": engine.ActionToggleGuides,
	"t": engine.ActionToggleStarfield,
	"j": engine.ActionFocusNext,
	"k": engine.ActionFocusPrev,
}

var modes = map[string]camera.Mode{
	"1": camera.ModeOrbit,
	"2": camera.ModeFree,
	"3": camera.ModeLocked,
}

// keyEvent maps a key to an engine event.
func keyEvent(key string) (engine.Event, bool) {
	if a, ok := actions[key]; ok {
		return engine.KeyEvent{Action: a}, true
	}
	if mode, ok := modes[key]; ok {
		return engine.ModeEvent{Mode: mode}, true
	}
	switch key {
	case "left":
		return engine.RotateEvent{DTheta: -rotateStep}, true
	case "right":
		return engine.RotateEvent{DTheta: rotateStep}, true
	case "up":
		return engine.RotateEvent{DPhi: -rotateStep}, true
	case "down":
		return engine.RotateEvent{DPhi: rotateStep}, true
	case "shift+left":
		return engine.PanEvent{DX: -panStep}, true
	case "shift+right":
		return engine.PanEvent{DX: panStep}, true
	case "shift+up":
		return engine.PanEvent{DY: panStep}, true
	case "shift+down":
		return engine.PanEvent{DY: -panStep}, true
	case "z":
		return engine.ZoomEvent{Factor: 1 / zoomStep}, true
	case "x":
		return engine.ZoomEvent{Factor: zoomStep}, true
	}
	return nil, false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.engine.Dispose()
		return m, tea.Quit

	case "R":
		if err := m.reinit(); err != nil {
			m.log.Error("re-initialise: %v", err)
			return m, tea.Quit
		}
		return m, m.tick()

	default:
		if ev, ok := keyEvent(key); ok {
			m.engine.Push(ev)
		}
	}
	return m, nil
}

// ndc converts a cell to normalized device coordinates at the cell center.
func (m Model) ndc(col, row int) (x, y float64) {
	x = 2*(float64(col)+0.5)/float64(m.width) - 1
	y = 1 - 2*(float64(row)+0.5)/float64(m.canvasHeight())
	return x, y
}

// handleMouse turns a press and release on the same cell into a click, a
// left drag into camera rotation and the wheel into zoom.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	if !m.ready {
		return
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.engine.Push(engine.ZoomEvent{Factor: 1 / wheelZoom})
		return
	case msg.Button == tea.MouseButtonWheelDown:
		m.engine.Push(engine.ZoomEvent{Factor: wheelZoom})
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.dragging, m.dragged = true, false
		m.dragX, m.dragY = msg.X, msg.Y

	case tea.MouseActionMotion:
		if !m.dragging {
			return
		}
		dx, dy := msg.X-m.dragX, msg.Y-m.dragY
		if dx == 0 && dy == 0 {
			return
		}
		m.engine.Push(engine.RotateEvent{DTheta: float64(dx) * dragScale, DPhi: float64(dy) * dragScale})
		m.dragX, m.dragY = msg.X, msg.Y
		m.dragged = true

	case tea.MouseActionRelease:
		if !m.dragging {
			return
		}
		m.dragging = false
		if m.dragged || msg.Y >= m.canvasHeight() {
			return
		}
		x, y := m.ndc(msg.X, msg.Y)
		m.engine.Push(engine.ClickEvent{X: x, Y: y})
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.surface.String() + "\n" + m.renderHUD()
}
