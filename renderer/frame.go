package renderer

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
)

// Background values for each frame pass. Color and albedo passes use a
// transparent background; depth maps to black and the normal encoding of a
// zero vector maps to mid-grey.
var (
	colorBackground  = color.RGBA{0, 0, 0, 0}
	albedoBackground = color.RGBA{0, 0, 0, 0}
	depthBackground  = color.RGBA{0, 0, 0, 255}
	normalBackground = color.RGBA{128, 128, 128, 255}
)

// A rendered frame with its auxiliary passes.
type Frame struct {
	// Shaded color in sRGB space.
	Color *image.RGBA

	// Encoded view-axis depth: 1 - (z - 0.7) * 0.8 clamped to [0, 1].
	Depth *image.RGBA

	// Camera-space surface normals encoded as n * 0.5 + 0.5.
	Normal *image.RGBA

	// Unlit surface color in sRGB space.
	Albedo *image.RGBA
}

func newFrame(w, h int) *Frame {
	return &Frame{
		Color:  newFilledImage(w, h, colorBackground),
		Depth:  newFilledImage(w, h, depthBackground),
		Normal: newFilledImage(w, h, normalBackground),
		Albedo: newFilledImage(w, h, albedoBackground),
	}
}

func newFilledImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for offset := 0; offset < len(img.Pix); offset += 4 {
		img.Pix[offset+0] = c.R
		img.Pix[offset+1] = c.G
		img.Pix[offset+2] = c.B
		img.Pix[offset+3] = c.A
	}
	return img
}

// Get the frame passes in the order: color, depth, normal, albedo.
func (f *Frame) Passes() []*image.RGBA {
	return []*image.RGBA{f.Color, f.Depth, f.Normal, f.Albedo}
}

// Box-filter all frame passes down to the given dimensions.
func (f *Frame) downsample(w, h int) *Frame {
	return &Frame{
		Color:  transform.Resize(f.Color, w, h, transform.Box),
		Depth:  transform.Resize(f.Depth, w, h, transform.Box),
		Normal: transform.Resize(f.Normal, w, h, transform.Box),
		Albedo: transform.Resize(f.Albedo, w, h, transform.Box),
	}
}

// Encode a [0, 1] value to an 8-bit channel.
func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	} else if v >= 1 {
		return 255
	}
	return uint8(v*255.0 + 0.5)
}
