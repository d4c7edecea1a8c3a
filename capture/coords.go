package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/types"
	"github.com/pkg/errors"
)

var ErrMalformedCoords = errors.New("capture: malformed coord file")

// A bbox corner and its projection on the rendered frame.
type Coord struct {
	World types.Vec3

	// Pixel coordinates with the origin at the top-left frame corner.
	Pixel types.Vec2
}

// Project the eight bbox corners with cam. The frame size is taken from the
// camera projection setup.
func ProjectCorners(bbox scene.BBox, cam *scene.Camera) []Coord {
	corners := bbox.Corners()
	coords := make([]Coord, len(corners))
	for idx, corner := range corners {
		px, py, _ := cam.Project(corner)
		coords[idx] = Coord{
			World: corner,
			Pixel: types.Vec2{px, py},
		}
	}
	return coords
}

// Write coords as "x y z px py" lines.
func WriteCoords(w io.Writer, coords []Coord) error {
	for _, c := range coords {
		_, err := fmt.Fprintf(w, "%f %f %f %f %f\n", c.World[0], c.World[1], c.World[2], c.Pixel[0], c.Pixel[1])
		if err != nil {
			return err
		}
	}
	return nil
}

// Save coords to a file.
func SaveCoords(path string, coords []Coord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err = WriteCoords(w, coords); err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Parse coords from a reader. Blank lines are ignored.
func ParseCoords(r io.Reader) ([]Coord, error) {
	coords := make([]Coord, 0, 8)

	lineNum := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			return nil, errors.Wrapf(ErrMalformedCoords, "line %d: expected 5 values; got %d", lineNum, len(fields))
		}

		var values [5]float32
		for idx, field := range fields {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedCoords, "line %d: invalid value %q", lineNum, field)
			}
			values[idx] = float32(v)
		}

		coords = append(coords, Coord{
			World: types.Vec3{values[0], values[1], values[2]},
			Pixel: types.Vec2{values[3], values[4]},
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return coords, nil
}

// Read coords from a file.
func ReadCoords(path string) ([]Coord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	coords, err := ParseCoords(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", path)
	}
	return coords, nil
}
