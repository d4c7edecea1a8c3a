package scene

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/achilleasa/shapeview/asset/texture"
	"github.com/achilleasa/shapeview/types"
	"github.com/olekukonko/tablewriter"
)

// The diffuse color assigned to surfaces without a material.
var DefaultDiffuse = types.Vec3{0.8, 0.8, 0.8}

// A diffuse surface material.
type Material struct {
	Name string

	// Diffuse/Albedo color.
	Kd types.Vec3

	// Diffuse texture path as referenced by the material library and the
	// loaded texture. Texture is nil if the texture could not be loaded.
	KdTex   string
	Texture *texture.Texture
}

// Get the albedo for a surface point. Textured materials are sampled at uv
// when the surface provides texture coordinates.
func (m *Material) Albedo(uv types.Vec2, hasUV bool) types.Vec3 {
	if m.Texture != nil && hasUV {
		return m.Texture.Sample(uv).Vec3()
	}
	return m.Kd
}

// A triangle referencing three entries of the scene vertex list.
type Triangle struct {
	Indices  [3]uint32
	Normals  [3]types.Vec3
	UVs      [3]types.Vec2
	Material int

	// Set if the corner normals/uvs were defined by the model or generated
	// by mesh processing. Triangles without normals are flat shaded.
	HasNormals bool
	HasUVs     bool
}

// A named group of triangles.
type Mesh struct {
	Name      string
	Triangles []Triangle
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Triangles: make([]Triangle, 0),
	}
}

// The scene contains the geometry and materials loaded from a model file.
type Scene struct {
	Vertices  []types.Vec3
	Meshes    []*Mesh
	Materials []*Material
}

// Create a new scene with a default material at index 0.
func New() *Scene {
	return &Scene{
		Vertices: make([]types.Vec3, 0),
		Meshes:   make([]*Mesh, 0),
		Materials: []*Material{
			{Name: "", Kd: DefaultDiffuse},
		},
	}
}

// Get the total number of triangles in the scene.
func (sc *Scene) NumTriangles() int {
	count := 0
	for _, mesh := range sc.Meshes {
		count += len(mesh.Triangles)
	}
	return count
}

// Returns true if the scene contains no triangles.
func (sc *Scene) IsEmpty() bool {
	return sc.NumTriangles() == 0
}

// Get the vertices of a triangle.
func (sc *Scene) TriangleVertices(tri *Triangle) [3]types.Vec3 {
	return [3]types.Vec3{
		sc.Vertices[tri.Indices[0]],
		sc.Vertices[tri.Indices[1]],
		sc.Vertices[tri.Indices[2]],
	}
}

// Get the material for a triangle. Out of range indices select the default material.
func (sc *Scene) TriangleMaterial(tri *Triangle) *Material {
	if tri.Material < 0 || tri.Material >= len(sc.Materials) {
		return sc.Materials[0]
	}
	return sc.Materials[tri.Material]
}

// Calculate the axis-aligned bounding box of all vertices referenced by the
// scene triangles. An empty scene yields a zero bbox.
func (sc *Scene) BBox() BBox {
	bbox := BBox{
		types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}

	found := false
	for _, mesh := range sc.Meshes {
		for triIndex := range mesh.Triangles {
			for _, vIndex := range mesh.Triangles[triIndex].Indices {
				bbox[0] = types.MinVec3(bbox[0], sc.Vertices[vIndex])
				bbox[1] = types.MaxVec3(bbox[1], sc.Vertices[vIndex])
				found = true
			}
		}
	}

	if !found {
		return BBox{}
	}
	return bbox
}

// Count loaded textures.
func (sc *Scene) NumTextures() int {
	count := 0
	for _, mat := range sc.Materials {
		if mat.Texture != nil {
			count++
		}
	}
	return count
}

// Generate a table with scene statistics.
func (sc *Scene) Stats() string {
	bbox := sc.BBox()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Value"})
	table.Append([]string{"Geometry", "Meshes", fmt.Sprintf("%d", len(sc.Meshes))})
	table.Append([]string{"", "Triangles", fmt.Sprintf("%d", sc.NumTriangles())})
	table.Append([]string{"", "Vertices", fmt.Sprintf("%d (%s)", len(sc.Vertices), fmtSize(sc.Vertices))})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Materials", "Materials", fmt.Sprintf("%d", len(sc.Materials))})
	table.Append([]string{"", "Textures", fmt.Sprintf("%d", sc.NumTextures())})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Bounds", "Min", fmtVec3(bbox[0])})
	table.Append([]string{"", "Max", fmtVec3(bbox[1])})
	table.Append([]string{"", "Size", fmtVec3(bbox.Size())})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(sc.Vertices, sc.triangleLists()...), " ")})

	table.Render()
	return buf.String()
}

func (sc *Scene) triangleLists() []interface{} {
	lists := make([]interface{}, 0, len(sc.Meshes))
	for _, mesh := range sc.Meshes {
		lists = append(lists, mesh.Triangles)
	}
	return lists
}

func fmtVec3(v types.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v[0], v[1], v[2])
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(first interface{}, items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range append([]interface{}{first}, items...) {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
