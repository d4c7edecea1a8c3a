package types

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Column-major 3x3 and 4x4 matrices.
type Mat3 mgl32.Mat3
type Mat4 mgl32.Mat4

// Create identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a perspective projection matrix. The fovY angle is specified in degrees.
func Perspective4(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(mgl32.DegToRad(fovY), aspect, near, far))
}

// Create a view matrix for a camera located at eye and looking at center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Create a translation matrix.
func Translate4(v Vec3) Mat4 {
	return Mat4(mgl32.Translate3D(v[0], v[1], v[2]))
}

// Create a rotation matrix around the Z axis. The angle is specified in radians.
func RotateZ4(angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3DZ(angle))
}

// Multiply two matrices.
func (m Mat4) Mul4(m2 Mat4) Mat4 {
	return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(m2)))
}

// Multiply matrix with a column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

// Transform a point; the result is divided by w.
func (m Mat4) TransformPoint(v Vec3) Vec3 {
	out := m.Mul4x1(v.Vec4(1))
	if out[3] != 0 && out[3] != 1 {
		return out.Vec3().Mul(1.0 / out[3])
	}
	return out.Vec3()
}

// Extract the top-left 3x3 matrix from a 4x4 matrix.
func (m Mat4) Mat3() Mat3 {
	return Mat3(mgl32.Mat4(m).Mat3())
}

// Multiply 3x3 matrix with a column vector.
func (m Mat3) Mul3x1(v Vec3) Vec3 {
	return Vec3(mgl32.Mat3(m).Mul3x1(mgl32.Vec3(v)))
}
