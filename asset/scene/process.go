package scene

import (
	"math"

	"github.com/achilleasa/shapeview/types"
)

// Convert a Y-up model to a Z-up world by mapping (x, y, z) to (x, -z, y).
// This matches the default axis conversion applied when importing wavefront
// models into a Z-up scene.
func (sc *Scene) ToZUp() {
	for index, v := range sc.Vertices {
		sc.Vertices[index] = yUpToZUp(v)
	}

	for _, mesh := range sc.Meshes {
		for triIndex := range mesh.Triangles {
			tri := &mesh.Triangles[triIndex]
			for corner := 0; corner < 3; corner++ {
				tri.Normals[corner] = yUpToZUp(tri.Normals[corner])
			}
		}
	}
}

func yUpToZUp(v types.Vec3) types.Vec3 {
	return types.Vec3{v[0], -v[2], v[1]}
}

// Translate the scene so that its bbox center is located at the origin.
// Returns the applied translation.
func (sc *Scene) Center() types.Vec3 {
	offset := sc.BBox().Center().Mul(-1)
	xform := types.Translate4(offset)
	for index, v := range sc.Vertices {
		sc.Vertices[index] = xform.TransformPoint(v)
	}
	return offset
}

// Weld vertices that are closer than eps to each other. Welding is performed
// separately for each mesh and triangles that collapse as a result are
// removed. Returns the number of merged vertices.
func (sc *Scene) RemoveDoubles(eps float32) int {
	if eps <= 0 {
		return 0
	}

	merged := 0
	for _, mesh := range sc.Meshes {
		merged += sc.weldMesh(mesh, eps)
	}
	return merged
}

type gridCell [3]int64

func (sc *Scene) weldMesh(mesh *Mesh, eps float32) int {
	cellOf := func(v types.Vec3) gridCell {
		return gridCell{
			int64(math.Floor(float64(v[0] / eps))),
			int64(math.Floor(float64(v[1] / eps))),
			int64(math.Floor(float64(v[2] / eps))),
		}
	}

	grid := make(map[gridCell][]uint32)
	remap := make(map[uint32]uint32)
	merged := 0
	epsSq := eps * eps

	for triIndex := range mesh.Triangles {
		for _, vIndex := range mesh.Triangles[triIndex].Indices {
			if _, seen := remap[vIndex]; seen {
				continue
			}

			v := sc.Vertices[vIndex]
			cell := cellOf(v)
			target := vIndex
			found := false

			// Search the neighboring cells for a representative within eps
		search:
			for dx := int64(-1); dx <= 1; dx++ {
				for dy := int64(-1); dy <= 1; dy++ {
					for dz := int64(-1); dz <= 1; dz++ {
						for _, candidate := range grid[gridCell{cell[0] + dx, cell[1] + dy, cell[2] + dz}] {
							d := sc.Vertices[candidate].Sub(v)
							if d.Dot(d) <= epsSq {
								target = candidate
								found = true
								break search
							}
						}
					}
				}
			}

			remap[vIndex] = target
			if found {
				merged++
			} else {
				grid[cell] = append(grid[cell], vIndex)
			}
		}
	}

	// Apply remapping and drop degenerate triangles
	kept := mesh.Triangles[:0]
	for _, tri := range mesh.Triangles {
		for corner := 0; corner < 3; corner++ {
			tri.Indices[corner] = remap[tri.Indices[corner]]
		}
		if tri.Indices[0] == tri.Indices[1] || tri.Indices[1] == tri.Indices[2] || tri.Indices[0] == tri.Indices[2] {
			continue
		}
		kept = append(kept, tri)
	}
	mesh.Triangles = kept

	return merged
}

// Generate smooth normals for triangles that do not define their own. For
// each triangle corner, the normals of the triangles sharing that vertex are
// averaged provided that the angle between their face normals does not exceed
// splitAngle (radians). Sharper edges keep separate normals on each side.
func (sc *Scene) EdgeSplit(splitAngle float32) {
	cosLimit := float32(math.Cos(float64(splitAngle)))

	for _, mesh := range sc.Meshes {
		faceNormals := make([]types.Vec3, len(mesh.Triangles))
		faceWeights := make([]float32, len(mesh.Triangles))
		incident := make(map[uint32][]int)

		for triIndex := range mesh.Triangles {
			tri := &mesh.Triangles[triIndex]
			verts := sc.TriangleVertices(tri)
			cross := verts[1].Sub(verts[0]).Cross(verts[2].Sub(verts[0]))
			faceWeights[triIndex] = cross.Len()
			faceNormals[triIndex] = cross.Normalize()

			if tri.HasNormals {
				continue
			}
			for _, vIndex := range tri.Indices {
				incident[vIndex] = append(incident[vIndex], triIndex)
			}
		}

		for triIndex := range mesh.Triangles {
			tri := &mesh.Triangles[triIndex]
			if tri.HasNormals {
				continue
			}

			fn := faceNormals[triIndex]
			for corner, vIndex := range tri.Indices {
				var sum types.Vec3
				for _, other := range incident[vIndex] {
					if other != triIndex && fn.Dot(faceNormals[other]) < cosLimit {
						continue
					}
					sum = sum.Add(faceNormals[other].Mul(faceWeights[other]))
				}

				n := sum.Normalize()
				if n.Len() == 0 {
					n = fn
				}
				tri.Normals[corner] = n
			}
			tri.HasNormals = true
		}
	}
}
