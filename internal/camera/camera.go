// Package camera implements the orbit / free / locked camera state machine
// and the perspective projection used by picking and rendering.
package camera

import (
	"errors"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoTarget is returned when the locked mode is requested without a body.
var ErrNoTarget = errors.New("camera: no lock target")

// Mode is the camera's control state.
type Mode int

const (
	ModeOrbit Mode = iota
	ModeFree
	ModeLocked
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeOrbit:
		return "orbit"
	case ModeFree:
		return "free"
	case ModeLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as returned by String. Case-insensitive.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "orbit", "":
		return ModeOrbit, true
	case "free":
		return ModeFree, true
	case "locked":
		return ModeLocked, true
	default:
		return ModeOrbit, false
	}
}

// Flags are the controls enabled in a mode.
type Flags struct {
	AutoRotate bool
	Rotate     bool
	Zoom       bool
	Pan        bool
}

// Flags returns the default controls of the mode.
func (m Mode) Flags() Flags {
	switch m {
	case ModeOrbit:
		return Flags{AutoRotate: true, Rotate: true, Zoom: true}
	case ModeFree:
		return Flags{Rotate: true, Zoom: true, Pan: true}
	case ModeLocked:
		return Flags{Rotate: true, Zoom: true}
	default:
		return Flags{}
	}
}

// Locator resolves a body identifier to its current world position.
type Locator interface {
	Locate(identifier string) (r3.Vec, bool)
}

// Options configures a Controller.
type Options struct {
	FovY            float64 // Vertical field of view, radians
	CellAspect      float64 // Height/width ratio of one surface cell
	DefaultEye      r3.Vec
	DefaultTarget   r3.Vec
	MinDistance     float64
	MaxDistance     float64
	Damping         float64 // Fraction of pending input applied per update, (0, 1]
	AutoRotateSpeed float64 // Radians per second about the target
}

// DefaultOptions returns the standard camera setup.
func DefaultOptions() Options {
	return Options{
		FovY:            45 * math.Pi / 180,
		CellAspect:      2,
		DefaultEye:      r3.Vec{X: 0, Y: 60, Z: 140},
		MinDistance:     15,
		MaxDistance:     600,
		Damping:         0.25,
		AutoRotateSpeed: 0.08,
	}
}

// State is a snapshot of the controller.
type State struct {
	Mode     Mode   `json:"mode"`
	Eye      r3.Vec `json:"eye"`
	Target   r3.Vec `json:"target"`
	TargetID string `json:"target_id,omitempty"`
}

// polar limits keep the eye off the vertical axis where the view basis degenerates.
const (
	minPolar = 0.05
	maxPolar = math.Pi - 0.05
	nearClip = 0.01
)

// Controller owns the camera state. It is not safe for concurrent use.
type Controller struct {
	opts  Options
	mode  Mode
	flags Flags

	eye      r3.Vec
	target   r3.Vec
	targetID string

	width  int
	height int
	aspect float64

	// Pending input, drained by Update with damping.
	dTheta float64
	dPhi   float64
	dZoom  float64 // log of the distance scale
	dPan   r3.Vec
}

// New creates a controller in Orbit mode at the default pose.
func New(opts Options) *Controller {
	if opts.Damping <= 0 || opts.Damping > 1 {
		opts.Damping = 1
	}
	if opts.CellAspect <= 0 {
		opts.CellAspect = 1
	}
	if opts.MinDistance <= 0 {
		opts.MinDistance = nearClip
	}
	if opts.MaxDistance < opts.MinDistance {
		opts.MaxDistance = opts.MinDistance
	}
	c := &Controller{
		opts:   opts,
		mode:   ModeOrbit,
		flags:  ModeOrbit.Flags(),
		aspect: 1,
	}
	c.Reset()
	return c
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// Flags returns the currently enabled controls.
func (c *Controller) Flags() Flags { return c.flags }

// Eye returns the camera position.
func (c *Controller) Eye() r3.Vec { return c.eye }

// Target returns the look-at point.
func (c *Controller) Target() r3.Vec { return c.target }

// TargetID returns the remembered lock target, if any.
func (c *Controller) TargetID() string { return c.targetID }

// Distance returns the eye's distance from the target.
func (c *Controller) Distance() float64 { return r3.Norm(r3.Sub(c.eye, c.target)) }

// State returns a snapshot of mode and pose.
func (c *Controller) State() State {
	return State{Mode: c.mode, Eye: c.eye, Target: c.target, TargetID: c.targetID}
}

// SetMode switches mode and applies its control flags together. Orbit and
// Free re-center on the world origin, keeping the viewing offset. Locked
// needs a target remembered from an earlier Lock.
func (c *Controller) SetMode(m Mode) error {
	switch m {
	case ModeOrbit, ModeFree:
	case ModeLocked:
		if c.targetID == "" {
			return ErrNoTarget
		}
	default:
		return errors.New("camera: unknown mode")
	}
	c.enter(m)
	return nil
}

// enter switches to a validated mode.
func (c *Controller) enter(m Mode) {
	if m != ModeLocked {
		c.recenter(r3.Vec{})
	}
	c.mode = m
	c.flags = m.Flags()
	c.dPan = r3.Vec{}
}

// Lock follows the body with the given identifier from the next Update on.
func (c *Controller) Lock(identifier string) error {
	if identifier == "" {
		return ErrNoTarget
	}
	c.targetID = identifier
	return c.SetMode(ModeLocked)
}

// ToggleAutoRotate flips auto-rotation and returns the new setting.
func (c *Controller) ToggleAutoRotate() bool {
	c.flags.AutoRotate = !c.flags.AutoRotate
	return c.flags.AutoRotate
}

// Reset restores the default eye and target without changing the mode.
func (c *Controller) Reset() {
	c.eye = c.opts.DefaultEye
	c.target = c.opts.DefaultTarget
	c.dTheta, c.dPhi, c.dZoom = 0, 0, 0
	c.dPan = r3.Vec{}
	c.clampDistance()
}

// Rotate queues an orbit of the eye around the target: dTheta about the
// vertical axis, dPhi toward the poles. Ignored when rotation is disabled.
func (c *Controller) Rotate(dTheta, dPhi float64) {
	if !c.flags.Rotate {
		return
	}
	c.dTheta += dTheta
	c.dPhi += dPhi
}

// Zoom queues a distance scale; factors above 1 move the eye away.
// Ignored when zoom is disabled or factor is not positive.
func (c *Controller) Zoom(factor float64) {
	if !c.flags.Zoom || factor <= 0 {
		return
	}
	c.dZoom += math.Log(factor)
}

// Pan queues a sideways shift of eye and target, in units of the current
// distance along the view's right and up axes. Ignored when pan is disabled.
func (c *Controller) Pan(dx, dy float64) {
	if !c.flags.Pan {
		return
	}
	right, up, _ := c.basis()
	d := c.Distance()
	c.dPan = r3.Add(c.dPan, r3.Add(r3.Scale(dx*d, right), r3.Scale(dy*d, up)))
}

// Update advances damping and auto-rotation by dt seconds. In Locked mode the
// target is re-read from loc first; if the body is gone the controller falls
// back to Orbit at the world origin.
func (c *Controller) Update(dt float64, loc Locator) {
	if dt < 0 {
		dt = 0
	}

	if c.mode == ModeLocked {
		pos, ok := locate(loc, c.targetID)
		if !ok {
			c.targetID = ""
			c.enter(ModeOrbit)
		} else {
			c.recenter(pos)
		}
	}

	offset := r3.Sub(c.eye, c.target)
	radius := r3.Norm(offset)
	if radius == 0 {
		offset = r3.Vec{Z: 1}
		radius = 1
	}
	theta := math.Atan2(offset.X, offset.Z)
	phi := math.Acos(clamp(offset.Y/radius, -1, 1))

	k := c.opts.Damping
	if c.flags.AutoRotate {
		theta += c.opts.AutoRotateSpeed * dt
	}
	theta += c.dTheta * k
	phi = clamp(phi+c.dPhi*k, minPolar, maxPolar)
	radius *= math.Exp(c.dZoom * k)
	pan := r3.Scale(k, c.dPan)

	c.dTheta -= c.dTheta * k
	c.dPhi -= c.dPhi * k
	c.dZoom -= c.dZoom * k
	c.dPan = r3.Sub(c.dPan, pan)

	c.target = r3.Add(c.target, pan)
	radius = clamp(radius, c.opts.MinDistance, c.opts.MaxDistance)
	c.eye = r3.Add(c.target, spherical(radius, theta, phi))
}

// recenter moves the target to p and the eye by the same delta.
func (c *Controller) recenter(p r3.Vec) {
	delta := r3.Sub(p, c.target)
	c.target = p
	c.eye = r3.Add(c.eye, delta)
}

func (c *Controller) clampDistance() {
	offset := r3.Sub(c.eye, c.target)
	d := r3.Norm(offset)
	if d == 0 {
		c.eye = r3.Add(c.target, r3.Vec{Z: c.opts.MinDistance})
		return
	}
	if cd := clamp(d, c.opts.MinDistance, c.opts.MaxDistance); cd != d {
		c.eye = r3.Add(c.target, r3.Scale(cd/d, offset))
	}
}

func locate(loc Locator, id string) (r3.Vec, bool) {
	if loc == nil || id == "" {
		return r3.Vec{}, false
	}
	return loc.Locate(id)
}

func spherical(radius, theta, phi float64) r3.Vec {
	s := math.Sin(phi)
	return r3.Vec{
		X: radius * s * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * s * math.Cos(theta),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
