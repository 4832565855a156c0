package model

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// IdentityTransform returns a transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// TransformFromMatrix decomposes a column-major matrix into a Transform.
//
// Parameters:
//   - m: the matrix to decompose, assumed free of shear
//
// Returns:
//   - Transform: the decomposed transform
func TransformFromMatrix(m mgl32.Mat4) Transform {
	t, r, s := common.DecomposeTRS(m)
	return Transform{Translation: t, Rotation: r, Scale: s}
}

// Matrix composes the transform in the fixed order T * R * S.
//
// Returns:
//   - mgl32.Mat4: the composed local matrix
func (t Transform) Matrix() mgl32.Mat4 {
	return common.ComposeTRS(t.Translation, t.Rotation, t.Scale)
}

// AxisAngleDegrees returns the rotation as a unit axis and an angle in degrees.
func (t Transform) AxisAngleDegrees() (mgl32.Vec3, float32) {
	return common.QuatToAxisAngleDegrees(t.Rotation)
}

// SetAxisAngleDegrees replaces the rotation with degrees around axis.
func (t *Transform) SetAxisAngleDegrees(axis mgl32.Vec3, degrees float32) {
	t.Rotation = common.QuatFromAxisAngleDegrees(axis, degrees)
}
