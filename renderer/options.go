package renderer

import "github.com/achilleasa/shapeview/types"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Each output pixel is rendered as a Supersample x Supersample grid of
	// samples that are box-filtered down to the frame dims.
	Supersample uint32

	// Number of block workers. If zero, one worker per CPU is used.
	Workers int

	// Scene lights. If empty, DefaultLights() is used.
	Lights []Light
}

// A directional light.
type Light struct {
	// Normalized direction pointing towards the light.
	Direction types.Vec3

	Energy float32
}

// Rotation (XYZ euler angles in radians) of the key light.
var keyLightRotation = types.Vec3{0.6503, 0.0552, 1.8663}

// Get the default light rig: a key sun and two dimmer fill suns rotated by
// 180 and 90 degrees around the X axis so that surfaces facing away from the
// key light are not completely dark.
func DefaultLights() []Light {
	return []Light{
		sunLight(keyLightRotation, 1.0),
		sunLight(keyLightRotation.Add(types.Vec3{radians(180), 0, 0}), 0.2),
		sunLight(keyLightRotation.Add(types.Vec3{radians(90), 0, 0}), 0.2),
	}
}

// Suns emit along their local -Z axis.
func sunLight(rot types.Vec3, energy float32) Light {
	q := types.QuatFromEulerXYZ(rot[0], rot[1], rot[2])
	return Light{
		Direction: q.Rotate(types.Vec3{0, 0, 1}).Normalize(),
		Energy:    energy,
	}
}

func radians(deg float32) float32 {
	return deg * 3.14159265358979 / 180.0
}
