package scene

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a rigid transform: rotate, then translate. The zero value is the identity.
type Transform struct {
	Position r3.Vec
	Rotation r3.Rotation
}

var identityRotation = r3.Rotation{Real: 1}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: identityRotation}
}

// Translation returns a transform that only offsets by p.
func Translation(p r3.Vec) Transform {
	return Transform{Position: p, Rotation: identityRotation}
}

// Rotated returns a transform that only rotates by alpha radians about axis.
func Rotated(alpha float64, axis r3.Vec) Transform {
	return Transform{Rotation: r3.NewRotation(alpha, axis)}
}

// rot treats the zero quaternion as the identity so that Transform{} is usable.
func (t Transform) rot() r3.Rotation {
	if t.Rotation == (r3.Rotation{}) {
		return identityRotation
	}
	return t.Rotation
}

// Apply maps a point from this transform's local frame into its parent frame.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.Position, t.rot().Rotate(p))
}

// Compose returns t∘local: the transform of a child whose local transform is
// local, given that t is the parent's world transform.
func (t Transform) Compose(local Transform) Transform {
	return Transform{
		Position: t.Apply(local.Position),
		Rotation: r3.Rotation(quat.Mul(quat.Number(t.rot()), quat.Number(local.rot()))),
	}
}
