package engine

import "github.com/litescript/ls-orrery/internal/camera"

// Event is a discrete input delivered between frames.
type Event interface {
	isEvent()
}

// Action is a keyboard command.
type Action int

const (
	ActionToggleLabels Action = iota
	ActionSpeedUp
	ActionSpeedDown
	ActionToggleAutoRotate
	ActionResetCamera
	ActionToggleGuides
	ActionToggleStarfield
	ActionFocusNext
	ActionFocusPrev
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionToggleLabels:
		return "toggle-labels"
	case ActionSpeedUp:
		return "speed-up"
	case ActionSpeedDown:
		return "speed-down"
	case ActionToggleAutoRotate:
		return "toggle-auto-rotate"
	case ActionResetCamera:
		return "reset-camera"
	case ActionToggleGuides:
		return "toggle-guides"
	case ActionToggleStarfield:
		return "toggle-starfield"
	case ActionFocusNext:
		return "focus-next"
	case ActionFocusPrev:
		return "focus-prev"
	default:
		return "unknown"
	}
}

// KeyEvent carries one keyboard command.
type KeyEvent struct {
	Action Action
}

// ClickEvent is a discrete pointer click in normalized device coordinates.
type ClickEvent struct {
	X, Y float64
}

// ResizeEvent reports a new surface size in cells.
type ResizeEvent struct {
	Width, Height int
}

// RotateEvent drags the camera around its target, in radians.
type RotateEvent struct {
	DTheta, DPhi float64
}

// ZoomEvent scales the camera distance.
type ZoomEvent struct {
	Factor float64
}

// PanEvent shifts the camera sideways, in units of its distance.
type PanEvent struct {
	DX, DY float64
}

// ModeEvent requests a camera mode.
type ModeEvent struct {
	Mode camera.Mode
}

func (KeyEvent) isEvent()    {}
func (ClickEvent) isEvent()  {}
func (ResizeEvent) isEvent() {}
func (RotateEvent) isEvent() {}
func (ZoomEvent) isEvent()   {}
func (PanEvent) isEvent()    {}
func (ModeEvent) isEvent()   {}

// queue is the FIFO of events waiting for the next frame.
type queue struct {
	events []Event
}

func (q *queue) push(e Event) {
	q.events = append(q.events, e)
}

// drain returns the queued events and empties the queue.
func (q *queue) drain() []Event {
	events := q.events
	q.events = nil
	return events
}

func (q *queue) len() int {
	return len(q.events)
}
