package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/engine"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newModel(t *testing.T, mutate ...func(*Options)) Model {
	t.Helper()
	opts := Options{
		Registry: bodies.Default(),
		Engine:   engine.DefaultOptions(),
		FPS:      30,
		Now:      func() time.Time { return t0 },
	}
	for _, f := range mutate {
		f(&opts)
	}
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// sized returns a model that has seen a window size and run its first frame.
func sized(t *testing.T, mutate ...func(*Options)) (Model, time.Time) {
	t.Helper()
	m := newModel(t, mutate...)
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 26})
	m, _ = update(m, frameMsg{gen: m.Generation(), at: t0})
	return m, t0
}

func TestViewBeforeSize(t *testing.T) {
	m := newModel(t)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q", got)
	}
}

func TestNewRequiresRegistry(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected an error for a nil registry")
	}
}

func TestWindowSizeReservesHUD(t *testing.T) {
	m, _ := sized(t)
	w, h := m.Surface().Size()
	if w != 80 || h != 26-hudLines {
		t.Errorf("canvas = %dx%d, want 80x%d", w, h, 26-hudLines)
	}
	view := m.View()
	if !strings.Contains(view, "Speed:") || !strings.Contains(view, "orbit") {
		t.Errorf("HUD missing from view:\n%s", view)
	}
}

func TestFrameTicks(t *testing.T) {
	m, at := sized(t)
	before := m.Engine().Frames()

	m, cmd := update(m, frameMsg{gen: m.Generation(), at: at.Add(33 * time.Millisecond)})
	if cmd == nil {
		t.Error("frame should schedule the next tick")
	}
	if m.Engine().Frames() != before+1 {
		t.Errorf("frames = %d, want %d", m.Engine().Frames(), before+1)
	}

	// A tick from another generation is dropped.
	m, cmd = update(m, frameMsg{gen: m.Generation() + 7, at: at.Add(66 * time.Millisecond)})
	if cmd != nil || m.Engine().Frames() != before+1 {
		t.Error("stale tick ran a frame")
	}
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		key  string
		want engine.Event
	}{
		{"l", engine.KeyEvent{Action: engine.ActionToggleLabels}},
		{"+", engine.KeyEvent{Action: engine.ActionSpeedUp}},
		{"=", engine.KeyEvent{Action: engine.ActionSpeedUp}},
		{"-", engine.KeyEvent{Action: engine.ActionSpeedDown}},
		{"a", engine.KeyEvent{Action: engine.ActionToggleAutoRotate}},
		{"r", engine.KeyEvent{Action: engine.ActionResetCamera}},
		{"j", engine.KeyEvent{Action: engine.ActionFocusNext}},
		{"k", engine.KeyEvent{Action: engine.ActionFocusPrev}},
		{"o", engine.KeyEvent{Action: engine.ActionToggleGuides}},
		{"t", engine.KeyEvent{Action: engine.ActionToggleStarfield}},
		{"1", engine.ModeEvent{Mode: camera.ModeOrbit}},
		{"2", engine.ModeEvent{Mode: camera.ModeFree}},
		{"3", engine.ModeEvent{Mode: camera.ModeLocked}},
		{"left", engine.RotateEvent{DTheta: -rotateStep}},
		{"down", engine.RotateEvent{DPhi: rotateStep}},
		{"shift+left", engine.PanEvent{DX: -panStep}},
		{"shift+up", engine.PanEvent{DY: panStep}},
		{"x", engine.ZoomEvent{Factor: zoomStep}},
	}
	for _, tt := range tests {
		got, ok := keyEvent(tt.key)
		if !ok || got != tt.want {
			t.Errorf("keyEvent(%q) = %#v, %v; want %#v", tt.key, got, ok, tt.want)
		}
	}
	if _, ok := keyEvent("?"); ok {
		t.Error("unmapped key produced an event")
	}
}

func TestSpeedKeyAppliesAtNextFrame(t *testing.T) {
	m, at := sized(t)
	m, _ = update(m, key('+'))
	if m.Engine().Speed() != engine.DefaultSpeed {
		t.Errorf("speed changed before the frame: %v", m.Engine().Speed())
	}
	m, _ = update(m, frameMsg{gen: m.Generation(), at: at.Add(time.Second / 30)})
	if want := engine.DefaultSpeed + engine.DefaultStep; m.Engine().Speed() != want {
		t.Errorf("speed = %v, want %v", m.Engine().Speed(), want)
	}
}

func TestClickSelectsBody(t *testing.T) {
	var got []engine.Selection
	m, at := sized(t, func(o *Options) {
		o.Sinks = append(o.Sinks, engine.SelectionFunc(func(s engine.Selection) { got = append(got, s) }))
	})

	m, _ = update(m, tea.MouseMsg{X: 40, Y: 12, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m, _ = update(m, tea.MouseMsg{X: 40, Y: 12, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	m, _ = update(m, frameMsg{gen: m.Generation(), at: at.Add(time.Second / 30)})

	if m.Engine().Selected() != "sun" {
		t.Fatalf("selected = %q, want sun", m.Engine().Selected())
	}
	if len(got) != 1 || got[0].Source != engine.SourcePick {
		t.Errorf("sink saw %v", got)
	}
	if !strings.Contains(m.View(), "◆ Sun") {
		t.Error("HUD does not show the selection")
	}
}

func TestDragRotatesWithoutClicking(t *testing.T) {
	m, at := sized(t)
	eye := m.Engine().Camera().Eye()

	m, _ = update(m, tea.MouseMsg{X: 10, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m, _ = update(m, tea.MouseMsg{X: 20, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	m, _ = update(m, tea.MouseMsg{X: 20, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	m, _ = update(m, frameMsg{gen: m.Generation(), at: at.Add(time.Second / 30)})

	if m.Engine().Selected() != "" {
		t.Errorf("drag selected %q", m.Engine().Selected())
	}
	if m.Engine().Camera().Eye() == eye {
		t.Error("drag did not move the camera")
	}
}

func TestWheelZooms(t *testing.T) {
	m, at := sized(t)
	d := m.Engine().Camera().Distance()

	m, _ = update(m, tea.MouseMsg{X: 40, Y: 12, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m, _ = update(m, frameMsg{gen: m.Generation(), at: at.Add(time.Second / 30)})

	if m.Engine().Camera().Distance() <= d {
		t.Errorf("distance %v did not grow from %v", m.Engine().Camera().Distance(), d)
	}
}

func TestRebuildKey(t *testing.T) {
	calls := 0
	m, at := sized(t, func(o *Options) {
		o.Sinks = append(o.Sinks, engine.SelectionFunc(func(engine.Selection) { calls++ }))
	})
	old := m.Engine()
	gen := m.Generation()

	m, cmd := update(m, key('R'))
	if cmd == nil {
		t.Error("rebuild should start a new tick")
	}
	if !old.Disposed() {
		t.Error("old engine not disposed")
	}
	if m.Generation() != gen+1 || m.Engine() == old {
		t.Fatal("no new engine")
	}

	// Ticks from the old engine no longer run frames.
	m, _ = update(m, frameMsg{gen: gen, at: at.Add(time.Second)})
	if m.Engine().Frames() != 0 {
		t.Errorf("stale tick ran on the new engine")
	}

	m, _ = update(m, key('j'))
	m, _ = update(m, frameMsg{gen: m.Generation(), at: at.Add(time.Second)})
	if w, h := m.Surface().Size(); w != 80 || h != 26-hudLines {
		t.Errorf("new surface = %dx%d, want the current window", w, h)
	}
	if calls != 1 {
		t.Errorf("sink calls = %d, want 1 after rebuild", calls)
	}
	if !old.Graph().Closed() {
		t.Error("old graph still open")
	}
}

func TestQuitDisposes(t *testing.T) {
	m, _ := sized(t)
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
	if !m.Engine().Disposed() {
		t.Error("engine not disposed on quit")
	}
}

func TestSnapshotsPublished(t *testing.T) {
	var snaps []*engine.SnapshotExport
	m, at := sized(t, func(o *Options) {
		o.OnSnapshot = func(s *engine.SnapshotExport) { snaps = append(snaps, s) }
	})
	for i := 1; i <= snapshotEvery; i++ {
		m, _ = update(m, frameMsg{gen: m.Generation(), at: at.Add(time.Duration(i) * time.Second / 30)})
	}
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}
	if snaps[0].Frames != 1 || len(snaps[0].Bodies) != m.Engine().Registry().Len() {
		t.Errorf("first snapshot = frame %d with %d bodies", snaps[0].Frames, len(snaps[0].Bodies))
	}
}

func TestInitialMode(t *testing.T) {
	m, _ := sized(t, func(o *Options) { o.Mode = camera.ModeFree })
	if got := m.Engine().Camera().Mode(); got != camera.ModeFree {
		t.Errorf("mode = %v, want free", got)
	}
}
