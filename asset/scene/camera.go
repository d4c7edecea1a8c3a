package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/shapeview/types"
)

const (
	// Field of view matching a 35mm lens on a 32mm sensor.
	DefaultFOV float32 = 49.134

	DefaultNear float32 = 0.1
	DefaultFar  float32 = 100.0
)

// The camera type controls the scene camera. The FOV applies to the larger
// of the two frame dimensions.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Camera FOV in degrees and clip distances.
	FOV  float32
	Near float32
	Far  float32

	ViewMat types.Mat4
	ProjMat types.Mat4

	frameW uint32
	frameH uint32
}

// Create a new camera looking down the -Y axis with +Z pointing up.
func NewCamera(fov float32) *Camera {
	c := &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 1, 0},
		Up:       types.Vec3{0, 0, 1},
		FOV:      fov,
		Near:     DefaultNear,
		Far:      DefaultFar,
		ViewMat:  types.Ident4(),
		ProjMat:  types.Ident4(),
	}
	return c
}

func (c *Camera) String() string {
	return fmt.Sprintf("camera eye: %v, look: %v, up: %v, fov: %.3f", c.Position, c.LookAt, c.Up, c.FOV)
}

// Setup camera projection matrix for the given frame dimensions.
func (c *Camera) SetupProjection(frameW, frameH uint32) {
	c.frameW, c.frameH = frameW, frameH
	aspect := float32(frameW) / float32(frameH)

	fovY := c.FOV
	if aspect > 1 {
		halfTan := math.Tan(float64(c.FOV) * math.Pi / 360.0)
		fovY = float32(2.0 * math.Atan(halfTan/float64(aspect)) * 180.0 / math.Pi)
	}

	c.ProjMat = types.Perspective4(fovY, aspect, c.Near, c.Far)
	c.Update()
}

// Update the camera view matrix.
func (c *Camera) Update() {
	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
}

// Place the camera at offset rotated by yaw radians around the +Z axis of a
// pivot located at the origin. The camera tracks the pivot with +Z pointing up.
func (c *Camera) Orbit(offset types.Vec3, yaw float32) {
	c.Position = types.RotateZ4(yaw).TransformPoint(offset)
	c.LookAt = types.Vec3{0, 0, 0}
	c.Up = types.Vec3{0, 0, 1}
	c.Update()
}

// Get the combined view-projection matrix.
func (c *Camera) ViewProjMat() types.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat)
}

// Map a world-space point to normalized frame coordinates. The returned X and Y
// are in the [0, 1] range for visible points with the origin at the bottom-left
// frame corner. Z is the distance of the point along the camera view axis.
func (c *Camera) WorldToCameraView(p types.Vec3) types.Vec3 {
	depth := -c.ViewMat.TransformPoint(p)[2]

	clip := c.ViewProjMat().Mul4x1(p.Vec4(1))
	if clip[3] == 0 {
		return types.Vec3{0.5, 0.5, depth}
	}
	ndcX, ndcY := clip[0]/clip[3], clip[1]/clip[3]

	return types.Vec3{(ndcX + 1) * 0.5, (ndcY + 1) * 0.5, depth}
}

// Project a world-space point to pixel coordinates with the origin at the
// top-left frame corner. The view-axis depth of the point is also returned.
func (c *Camera) Project(p types.Vec3) (px, py, depth float32) {
	co := c.WorldToCameraView(p)
	w, h := float32(c.frameW), float32(c.frameH)
	return co[0] * w, h - co[1]*h, co[2]
}
