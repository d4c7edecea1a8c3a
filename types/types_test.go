package types

import (
	"math"
	"testing"
)

func vecApproxEqual(v1, v2 Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(float64(v1[i]-v2[i])) > 1e-4 {
			return false
		}
	}
	return true
}

func TestNormalize(t *testing.T) {
	type spec struct {
		in  Vec3
		exp Vec3
	}
	specs := []spec{
		{Vec3{3, 0, 0}, Vec3{1, 0, 0}},
		{Vec3{0, -2, 0}, Vec3{0, -1, 0}},
		{Vec3{0, 0, 0}, Vec3{0, 0, 0}},
	}

	for index, s := range specs {
		if got := s.in.Normalize(); !vecApproxEqual(got, s.exp) {
			t.Fatalf("[spec %d] expected normalized vector to be %v; got %v", index, s.exp, got)
		}
	}
}

func TestQuatFromEulerXYZ(t *testing.T) {
	q := QuatFromEulerXYZ(0, 0, math.Pi/2)
	got := q.Rotate(Vec3{1, 0, 0})
	exp := Vec3{0, 1, 0}
	if !vecApproxEqual(got, exp) {
		t.Fatalf("expected rotated vector to be %v; got %v", exp, got)
	}

	// X is applied before Z
	q = QuatFromEulerXYZ(math.Pi/2, 0, math.Pi/2)
	got = q.Rotate(Vec3{0, 1, 0})
	exp = Vec3{0, 0, 1}
	if !vecApproxEqual(got, exp) {
		t.Fatalf("expected rotated vector to be %v; got %v", exp, got)
	}
}

func TestLookAtTransformsEyeToOrigin(t *testing.T) {
	eye := Vec3{0, -1.5, 0.08}
	view := LookAtV(eye, Vec3{}, Vec3{0, 0, 1})

	got := view.TransformPoint(eye)
	if !vecApproxEqual(got, Vec3{}) {
		t.Fatalf("expected eye to map to the origin; got %v", got)
	}

	// The look-at target lies on the -Z axis in view space
	got = view.TransformPoint(Vec3{})
	if got[2] >= 0 || math.Abs(float64(got[0])) > 1e-4 {
		t.Fatalf("expected target to lie on the -Z view axis; got %v", got)
	}
}

func TestTranslateAfterRotate(t *testing.T) {
	m := Translate4(Vec3{1, 2, 3}).Mul4(RotateZ4(math.Pi / 2))
	exp := Vec3{1, 3, 3}
	if got := m.TransformPoint(Vec3{1, 0, 0}); !vecApproxEqual(got, exp) {
		t.Fatalf("expected transformed point to be %v; got %v", exp, got)
	}
}
