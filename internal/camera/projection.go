package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var worldUp = r3.Vec{Y: 1}

// Resize sets the viewport in surface cells. A zero-area viewport is ignored
// and the previous projection is kept; Resize reports whether it applied.
func (c *Controller) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	c.width, c.height = width, height
	c.aspect = float64(width) / (float64(height) * c.opts.CellAspect)
	return true
}

// Viewport returns the last accepted viewport size.
func (c *Controller) Viewport() (width, height int) {
	return c.width, c.height
}

// Aspect returns the projection's width/height ratio.
func (c *Controller) Aspect() float64 {
	return c.aspect
}

// basis returns the view's right, up and forward unit vectors.
func (c *Controller) basis() (right, up, forward r3.Vec) {
	forward = r3.Sub(c.target, c.eye)
	if r3.Norm(forward) == 0 {
		forward = r3.Vec{Z: -1}
	}
	forward = r3.Unit(forward)
	right = r3.Cross(forward, worldUp)
	if r3.Norm(right) == 0 {
		right = r3.Vec{X: 1}
	}
	right = r3.Unit(right)
	up = r3.Cross(right, forward)
	return right, up, forward
}

// Basis returns the view's right, up and forward unit vectors.
func (c *Controller) Basis() (right, up, forward r3.Vec) {
	return c.basis()
}

// Ray returns the world-space ray from the eye through normalized device
// coordinates (x right, y up, both in [-1, 1]). The direction is unit length.
func (c *Controller) Ray(x, y float64) (origin, dir r3.Vec) {
	right, up, forward := c.basis()
	h := math.Tan(c.opts.FovY / 2)
	dir = r3.Add(forward, r3.Add(
		r3.Scale(x*h*c.aspect, right),
		r3.Scale(y*h, up),
	))
	return c.eye, r3.Unit(dir)
}

// Projection is a world point mapped into the viewport.
type Projection struct {
	X, Y  float64 // Normalized device coordinates
	Depth float64 // Distance along the view axis
}

// Project maps a world point into normalized device coordinates. It fails
// for points behind the near plane; points outside the frustum still project.
func (c *Controller) Project(p r3.Vec) (Projection, bool) {
	right, up, forward := c.basis()
	v := r3.Sub(p, c.eye)
	z := r3.Dot(v, forward)
	if z <= nearClip {
		return Projection{}, false
	}
	h := math.Tan(c.opts.FovY / 2)
	return Projection{
		X:     r3.Dot(v, right) / (z * h * c.aspect),
		Y:     r3.Dot(v, up) / (z * h),
		Depth: z,
	}, true
}

// ProjectDirection maps a direction at infinity, as seen from the eye.
func (c *Controller) ProjectDirection(d r3.Vec) (Projection, bool) {
	return c.Project(r3.Add(c.eye, d))
}

// ScreenScale returns how many NDC units a world length covers at depth z
// vertically.
func (c *Controller) ScreenScale(z float64) float64 {
	if z <= nearClip {
		return 0
	}
	return 1 / (z * math.Tan(c.opts.FovY/2))
}
