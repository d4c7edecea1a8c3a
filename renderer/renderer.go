package renderer

import (
	"context"

	"github.com/achilleasa/shapeview/asset/scene"
)

type Renderer interface {
	// Render frame as seen by the given camera.
	Render(ctx context.Context, cam *scene.Camera) (*Frame, error)

	// Get render statistics for the last frame.
	Stats() FrameStats
}
