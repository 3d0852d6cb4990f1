// Package picking resolves a pointer position to the body under it.
package picking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-orrery/internal/scene"
)

// Camera is the part of the camera controller picking needs.
type Camera interface {
	Ray(x, y float64) (origin, dir r3.Vec)
}

// Hit is a successful pick.
type Hit struct {
	Identifier string
	Node       scene.NodeID
	Distance   float64 // Ray parameter of the nearest intersection
}

// Pick casts a ray through normalized device coordinates (x, y) and returns
// the nearest pickable node it intersects. Coordinates outside [-1, 1] and
// rays that hit nothing return false. Equal distances keep the node visited
// first.
func Pick(x, y float64, cam Camera, g *scene.Graph) (Hit, bool) {
	if cam == nil || g == nil || math.Abs(x) > 1 || math.Abs(y) > 1 {
		return Hit{}, false
	}
	origin, dir := cam.Ray(x, y)

	var best Hit
	found := false
	g.ForEachDescendant(g.Root(), func(n *scene.Node) {
		if !n.Pickable || n.Identifier == "" || n.Radius <= 0 {
			return
		}
		center, ok := g.WorldPosition(n.ID)
		if !ok {
			return
		}
		d, ok := RaySphere(origin, dir, center, n.Radius)
		if !ok {
			return
		}
		if !found || d < best.Distance {
			best = Hit{Identifier: n.Identifier, Node: n.ID, Distance: d}
			found = true
		}
	})
	return best, found
}

// RaySphere returns the smallest non-negative ray parameter at which the ray
// origin + t*dir meets the sphere. dir must be unit length. A ray starting
// inside the sphere hits at its exit point.
func RaySphere(origin, dir, center r3.Vec, radius float64) (float64, bool) {
	oc := r3.Sub(origin, center)
	b := r3.Dot(oc, dir)
	c := r3.Dot(oc, oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t >= 0 {
		return t, true
	}
	if t := -b + sq; t >= 0 {
		return t, true
	}
	return 0, false
}
