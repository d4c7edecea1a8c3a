package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/capture"
	"github.com/achilleasa/shapeview/log"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"
	"golang.org/x/image/vector"
)

var ErrBadCoordFile = errors.New("overlay: coord file must contain exactly 8 points")

// Face outline colors; one per bbox face.
var FaceColors = [6]color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
}

var logger = log.New("overlay")

type Options struct {
	// Outline width in pixels.
	LineWidth float32

	// If set, the image is composited over this color before drawing.
	Background color.Color
}

// Draw the projected bbox faces over img as closed polygons.
func Draw(img image.Image, coords []capture.Coord, opts Options) (*image.RGBA, error) {
	if len(coords) != 8 {
		return nil, errors.Wrapf(ErrBadCoordFile, "got %d points", len(coords))
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1.5
	}

	var dst *image.RGBA
	if opts.Background != nil {
		dst = image.NewRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	} else {
		dst = clone.AsRGBA(img)
	}

	bounds := dst.Bounds()
	raster := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	for faceIndex, face := range scene.BBoxFaces {
		raster.Reset(bounds.Dx(), bounds.Dy())
		for corner := range face {
			from := coords[face[corner]].Pixel
			to := coords[face[(corner+1)%len(face)]].Pixel
			addSegment(raster, from[0], from[1], to[0], to[1], opts.LineWidth*0.5)
		}
		raster.Draw(dst, bounds, image.NewUniform(FaceColors[faceIndex]), image.Point{})
	}

	return dst, nil
}

// Add a line segment to the rasterizer path as a quad. All quads share the same
// winding so overlapping segments do not cancel each other out.
func addSegment(raster *vector.Rasterizer, x0, y0, x1, y1, halfWidth float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length == 0 {
		return
	}

	// Extend the segment by half the line width so that outline corners are closed.
	ux, uy := dx/length*halfWidth, dy/length*halfWidth
	nx, ny := -uy, ux
	x0, y0 = x0-ux, y0-uy
	x1, y1 = x1+ux, y1+uy

	raster.MoveTo(x0+nx, y0+ny)
	raster.LineTo(x1+nx, y1+ny)
	raster.LineTo(x1-nx, y1-ny)
	raster.LineTo(x0-nx, y0-ny)
	raster.ClosePath()
}

// Get the coord file for a rendered view or one of its auxiliary passes.
func CoordPath(imagePath string) string {
	prefix := strings.TrimSuffix(imagePath, ".png")
	for _, suffix := range []string{capture.DepthSuffix, capture.NormalSuffix, capture.AlbedoSuffix} {
		prefix = strings.TrimSuffix(prefix, strings.TrimSuffix(suffix, ".png"))
	}
	return prefix + capture.CoordSuffix
}

// Read a view image and its coord file, draw the bbox overlay and save the
// result as a PNG. If coordPath is empty it is derived from imagePath.
func Render(imagePath, coordPath, outPath string, opts Options) error {
	if coordPath == "" {
		coordPath = CoordPath(imagePath)
	}

	img, err := imgio.Open(imagePath)
	if err != nil {
		return errors.Wrapf(err, "overlay: could not read image %s", imagePath)
	}

	coords, err := capture.ReadCoords(coordPath)
	if errors.Is(err, capture.ErrMalformedCoords) {
		return errors.Wrap(ErrBadCoordFile, err.Error())
	} else if err != nil {
		return errors.Wrapf(err, "overlay: could not read coords %s", coordPath)
	}

	out, err := Draw(img, coords, opts)
	if err != nil {
		return errors.Wrap(err, coordPath)
	}

	if err = imgio.Save(outPath, out, imgio.PNGEncoder()); err != nil {
		return errors.Wrapf(err, "overlay: could not write %s", outPath)
	}

	logger.Infof("wrote bbox overlay to %s", outPath)
	return nil
}
