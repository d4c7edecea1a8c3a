package scene

import "github.com/achilleasa/shapeview/types"

// An axis-aligned bounding box stored as its min and max corners.
type BBox [2]types.Vec3

// Get the bbox center.
func (b BBox) Center() types.Vec3 {
	return b[0].Add(b[1]).Mul(0.5)
}

// Get the bbox extents along each axis.
func (b BBox) Size() types.Vec3 {
	return b[1].Sub(b[0])
}

// Get the eight bbox corners. The corners are listed so that 0-3 and 4-7
// form the xmin and xmax faces:
//
//	0: (xmin, ymin, zmin)  4: (xmax, ymin, zmin)
//	1: (xmin, ymin, zmax)  5: (xmax, ymin, zmax)
//	2: (xmin, ymax, zmax)  6: (xmax, ymax, zmax)
//	3: (xmin, ymax, zmin)  7: (xmax, ymax, zmin)
func (b BBox) Corners() [8]types.Vec3 {
	min, max := b[0], b[1]
	return [8]types.Vec3{
		{min[0], min[1], min[2]},
		{min[0], min[1], max[2]},
		{min[0], max[1], max[2]},
		{min[0], max[1], min[2]},
		{max[0], min[1], min[2]},
		{max[0], min[1], max[2]},
		{max[0], max[1], max[2]},
		{max[0], max[1], min[2]},
	}
}

// The corner indices for each of the six bbox faces.
var BBoxFaces = [6][4]int{
	{0, 1, 2, 3},
	{4, 5, 6, 7},
	{0, 1, 5, 4},
	{3, 2, 6, 7},
	{0, 3, 7, 4},
	{1, 2, 6, 5},
}
