package scene

import (
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/shapeview/types"
)

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func vecApproxEqual(v1, v2 types.Vec3) bool {
	return approxEqual(v1[0], v2[0]) && approxEqual(v1[1], v2[1]) && approxEqual(v1[2], v2[2])
}

// A unit cube with corners at 0 and 1 split into 12 triangles that share vertices.
func cubeScene() *Scene {
	sc := New()
	sc.Vertices = []types.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	faces := [][4]uint32{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {1, 2, 6, 5},
		{2, 3, 7, 6}, {3, 0, 4, 7},
	}
	mesh := NewMesh("cube")
	for _, f := range faces {
		mesh.Triangles = append(mesh.Triangles,
			Triangle{Indices: [3]uint32{f[0], f[1], f[2]}},
			Triangle{Indices: [3]uint32{f[0], f[2], f[3]}},
		)
	}
	sc.Meshes = append(sc.Meshes, mesh)
	return sc
}

func TestBBoxAndCorners(t *testing.T) {
	sc := cubeScene()

	// Unreferenced vertices must not contribute to the bbox
	sc.Vertices = append(sc.Vertices, types.Vec3{100, 100, 100})

	bbox := sc.BBox()
	if !vecApproxEqual(bbox[0], types.Vec3{0, 0, 0}) || !vecApproxEqual(bbox[1], types.Vec3{1, 1, 1}) {
		t.Fatalf("expected unit bbox; got %v", bbox)
	}

	expCorners := [8]types.Vec3{
		{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0},
		{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0},
	}
	corners := bbox.Corners()
	for index := range expCorners {
		if !vecApproxEqual(corners[index], expCorners[index]) {
			t.Fatalf("expected corner %d to be %v; got %v", index, expCorners[index], corners[index])
		}
	}
}

func TestEmptySceneBBox(t *testing.T) {
	sc := New()
	if !sc.IsEmpty() {
		t.Fatal("expected new scene to be empty")
	}
	if bbox := sc.BBox(); bbox != (BBox{}) {
		t.Fatalf("expected zero bbox for empty scene; got %v", bbox)
	}
}

func TestToZUpAndCenter(t *testing.T) {
	sc := cubeScene()
	sc.ToZUp()

	bbox := sc.BBox()
	if !vecApproxEqual(bbox[0], types.Vec3{0, -1, 0}) || !vecApproxEqual(bbox[1], types.Vec3{1, 0, 1}) {
		t.Fatalf("expected bbox [(0,-1,0), (1,0,1)] after axis conversion; got %v", bbox)
	}

	offset := sc.Center()
	if !vecApproxEqual(offset, types.Vec3{-0.5, 0.5, -0.5}) {
		t.Fatalf("expected centering offset (-0.5, 0.5, -0.5); got %v", offset)
	}
	if center := sc.BBox().Center(); !vecApproxEqual(center, types.Vec3{}) {
		t.Fatalf("expected bbox center at origin; got %v", center)
	}
}

func TestRemoveDoubles(t *testing.T) {
	sc := New()
	sc.Vertices = []types.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		// Near-duplicates of the first triangle vertices
		{0.00001, 0, 0}, {1, 0.00001, 0}, {0, 1, 0},
		{1, 1, 0},
	}
	mesh := NewMesh("quad")
	mesh.Triangles = []Triangle{
		{Indices: [3]uint32{0, 1, 2}},
		{Indices: [3]uint32{4, 6, 5}},
		// Collapses after welding
		{Indices: [3]uint32{0, 3, 1}},
	}
	sc.Meshes = append(sc.Meshes, mesh)

	merged := sc.RemoveDoubles(0.0001)
	if merged != 3 {
		t.Fatalf("expected 3 merged vertices; got %d", merged)
	}
	if len(mesh.Triangles) != 2 {
		t.Fatalf("expected 2 triangles after welding; got %d", len(mesh.Triangles))
	}

	expIndices := [3]uint32{1, 6, 2}
	if mesh.Triangles[1].Indices != expIndices {
		t.Fatalf("expected second triangle indices %v; got %v", expIndices, mesh.Triangles[1].Indices)
	}
}

func TestEdgeSplit(t *testing.T) {
	// Cube edges are at 90 degrees; a 60 degree limit keeps faces flat while a
	// 100 degree limit smooths across them.
	sc := cubeScene()
	sc.EdgeSplit(60 * math.Pi / 180)

	tri := sc.Meshes[0].Triangles[0]
	if !tri.HasNormals {
		t.Fatal("expected triangle normals to be generated")
	}
	for corner := 0; corner < 3; corner++ {
		if !vecApproxEqual(tri.Normals[corner], types.Vec3{0, 0, -1}) {
			t.Fatalf("expected flat -Z normal for corner %d; got %v", corner, tri.Normals[corner])
		}
	}

	sc = cubeScene()
	sc.EdgeSplit(100 * math.Pi / 180)
	n := sc.Meshes[0].Triangles[0].Normals[0]
	if n[0] >= 0 || n[1] >= 0 || n[2] >= 0 || !approxEqual(n.Len(), 1) {
		t.Fatalf("expected smoothed unit normal pointing away from the cube corner; got %v", n)
	}
}

func TestStats(t *testing.T) {
	out := cubeScene().Stats()
	for _, exp := range []string{"Triangles", "12", "Vertices", "Bounds"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected stats output to contain %q; got:\n%s", exp, out)
		}
	}
}
