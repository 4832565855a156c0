package common

import (
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// minScaleAxis is the smallest column length treated as a real scale during decomposition.
const minScaleAxis = 0.0001

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// ComposeTRS builds the matrix T * R * S from a translation, a rotation and a scale.
// The result is column-major, matching mgl32 and the vertex shader's expectations.
//
// Parameters:
//   - translation: the translation vector
//   - rotation: the rotation quaternion (expected unit length)
//   - scale: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed transform
func ComposeTRS(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(translation[0], translation[1], translation[2])
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(rotation.Mat4()).Mul4(s)
}

// DecomposeTRS splits a column-major affine matrix into translation, rotation and scale.
// Shear is not representable and is discarded.
//
// Parameters:
//   - m: the matrix to decompose
//
// Returns:
//   - mgl32.Vec3: the translation (column 3)
//   - mgl32.Quat: the normalized rotation
//   - mgl32.Vec3: the scale (length of each basis column)
func DecomposeTRS(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	translation := mgl32.Vec3{m[12], m[13], m[14]}

	sx := mgl32.Vec3{m[0], m[1], m[2]}.Len()
	sy := mgl32.Vec3{m[4], m[5], m[6]}.Len()
	sz := mgl32.Vec3{m[8], m[9], m[10]}.Len()
	scale := mgl32.Vec3{sx, sy, sz}

	// Mirrored bases flip one axis so the remaining rotation stays proper.
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
		sx = -sx
	}

	if math.Abs(float64(sx)) < minScaleAxis {
		sx = 1
	}
	if sy < minScaleAxis {
		sy = 1
	}
	if sz < minScaleAxis {
		sz = 1
	}

	rot := mgl32.Mat4{
		m[0] / sx, m[1] / sx, m[2] / sx, 0,
		m[4] / sy, m[5] / sy, m[6] / sy, 0,
		m[8] / sz, m[9] / sz, m[10] / sz, 0,
		0, 0, 0, 1,
	}

	return translation, mgl32.Mat4ToQuat(rot).Normalize(), scale
}

// QuatFromXYZW converts a glTF ordered quaternion (x, y, z, w) into an mgl32 quaternion.
// The value is not normalized.
func QuatFromXYZW(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// QuatToXYZW converts an mgl32 quaternion into glTF order (x, y, z, w).
func QuatToXYZW(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

// QuatToAxisAngleDegrees converts a rotation into a unit axis and an angle in degrees.
// A rotation with no angle reports the X axis so callers always get a usable axis.
//
// Parameters:
//   - q: the rotation quaternion
//
// Returns:
//   - mgl32.Vec3: the rotation axis
//   - float32: the rotation angle in degrees, in [0, 360)
func QuatToAxisAngleDegrees(q mgl32.Quat) (mgl32.Vec3, float32) {
	q = q.Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}

	angle := 2 * math.Acos(float64(mgl32.Clamp(q.W, -1, 1)))
	s := math.Sqrt(1 - float64(q.W*q.W))
	if s < 1e-6 {
		return mgl32.Vec3{1, 0, 0}, float32(mgl32.RadToDeg(float32(angle)))
	}

	axis := q.V.Mul(float32(1 / s))
	return axis.Normalize(), mgl32.RadToDeg(float32(angle))
}

// QuatFromAxisAngleDegrees builds a unit rotation of the given angle (degrees) around axis.
// A zero-length axis yields the identity rotation.
//
// Parameters:
//   - axis: the rotation axis (need not be normalized)
//   - degrees: the rotation angle in degrees
//
// Returns:
//   - mgl32.Quat: the rotation
func QuatFromAxisAngleDegrees(axis mgl32.Vec3, degrees float32) mgl32.Quat {
	if axis.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(mgl32.DegToRad(degrees), axis.Normalize()).Normalize()
}

// Lerp3 linearly interpolates two vectors component-wise.
//
// Parameters:
//   - a: the start value
//   - b: the end value
//   - t: the interpolation coefficient, 0 yields a and 1 yields b
//
// Returns:
//   - mgl32.Vec3: the interpolated vector
func Lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Origin returns the translation a matrix applies to the origin.
func Origin(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.TransformCoordinate(mgl32.Vec3{}, m)
}
