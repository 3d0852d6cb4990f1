// Package labels keeps one camera-facing name tag above every labeled body.
package labels

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/scene"
)

// DefaultOffset is the gap between a body's top and its label, in scene units.
const DefaultOffset = 0.6

// Sprite is one label.
type Sprite struct {
	Identifier string
	Text       string
	Position   r3.Vec      // World anchor, above the body
	Facing     r3.Rotation // Maps the sprite's +Z onto the direction of the eye
	Live       bool        // False when the body no longer resolves
}

// Overlay owns the label sprites for one scene graph.
type Overlay struct {
	graph    *scene.Graph
	offset   float64
	visible  bool
	sprites  []Sprite
	rebuilds int
}

// New creates an overlay for g. When visible, sprites are created at once.
func New(g *scene.Graph, offset float64, visible bool) *Overlay {
	o := &Overlay{graph: g, offset: offset}
	o.SetVisible(visible)
	return o
}

// Visible reports whether labels are shown.
func (o *Overlay) Visible() bool {
	return o.visible
}

// SetVisible destroys every sprite and, when v is true, recreates the full
// set from the graph in one batch.
func (o *Overlay) SetVisible(v bool) {
	o.visible = v
	o.sprites = nil
	o.rebuilds++
	if !v || o.graph == nil {
		return
	}
	o.graph.ForEachDescendant(o.graph.Root(), func(n *scene.Node) {
		if !n.Pickable || !n.Labeled || n.Identifier == "" {
			return
		}
		text := n.Name
		if text == "" {
			text = n.Identifier
		}
		o.sprites = append(o.sprites, Sprite{Identifier: n.Identifier, Text: text})
	})
}

// Toggle flips visibility and returns the new setting.
func (o *Overlay) Toggle() bool {
	o.SetVisible(!o.visible)
	return o.visible
}

// Rebuilds counts how many times the sprite set has been recreated.
func (o *Overlay) Rebuilds() int {
	return o.rebuilds
}

// Update re-anchors every sprite and recomputes its facing from eye.
// A sprite whose body is gone is marked not live and left in place.
func (o *Overlay) Update(eye r3.Vec) {
	if o.graph == nil {
		return
	}
	for i := range o.sprites {
		s := &o.sprites[i]
		n, ok := o.graph.LookupNode(s.Identifier)
		if !ok {
			s.Live = false
			continue
		}
		pos, ok := o.graph.WorldPosition(n.ID)
		if !ok {
			s.Live = false
			continue
		}
		s.Position = r3.Add(pos, r3.Vec{Y: n.Radius + o.offset})
		s.Facing = Facing(s.Position, eye)
		s.Live = true
	}
}

// Sprites returns a copy of the current sprites.
func (o *Overlay) Sprites() []Sprite {
	out := make([]Sprite, len(o.sprites))
	copy(out, o.sprites)
	return out
}

// Facing returns the rotation that turns +Z at pos toward eye, with no roll.
func Facing(pos, eye r3.Vec) r3.Rotation {
	d := r3.Sub(eye, pos)
	l := r3.Norm(d)
	if l == 0 {
		return r3.Rotation{Real: 1}
	}
	yaw := r3.NewRotation(math.Atan2(d.X, d.Z), r3.Vec{Y: 1})
	pitch := r3.NewRotation(-math.Asin(d.Y/l), r3.Vec{X: 1})
	return r3.Rotation(quat.Mul(quat.Number(yaw), quat.Number(pitch)))
}
