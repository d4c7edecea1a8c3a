package capture

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWriteCoordsFormat(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCoords(&buf, []Coord{
		{World: types.Vec3{-0.5, 0, 0.25}, Pixel: types.Vec2{300, 412.5}},
		{World: types.Vec3{1, 2, 3}, Pixel: types.Vec2{-4, 5}},
	})
	require.NoError(t, err)
	require.Equal(t, "-0.500000 0.000000 0.250000 300.000000 412.500000\n1.000000 2.000000 3.000000 -4.000000 5.000000\n", buf.String())
}

func TestSaveAndReadCoords(t *testing.T) {
	cam := scene.NewCamera(scene.DefaultFOV)
	cam.SetupProjection(600, 600)
	cam.Orbit(types.Vec3{0, -1.5, 0.08}, 0)

	bbox := scene.BBox{types.Vec3{-0.5, -0.25, -0.125}, types.Vec3{0.5, 0.25, 0.125}}
	coords := ProjectCorners(bbox, cam)
	require.Len(t, coords, 8)

	path := filepath.Join(t.TempDir(), "view_coord.txt")
	require.NoError(t, SaveCoords(path, coords))

	read, err := ReadCoords(path)
	require.NoError(t, err)
	require.Len(t, read, 8)
	for idx := range coords {
		require.Equal(t, coords[idx].World, read[idx].World)
		require.InDelta(t, coords[idx].Pixel[0], read[idx].Pixel[0], 1e-3)
		require.InDelta(t, coords[idx].Pixel[1], read[idx].Pixel[1], 1e-3)
	}

	// Corners that only differ in x are mirrored around the frame center
	require.InDelta(t, 600-coords[0].Pixel[0], coords[4].Pixel[0], 1e-2)
	require.InDelta(t, coords[0].Pixel[1], coords[4].Pixel[1], 1e-2)
}

func TestParseCoordsErrors(t *testing.T) {
	_, err := ParseCoords(strings.NewReader("1 2 3 4\n"))
	require.ErrorContains(t, err, "line 1: expected 5 values; got 4")

	require.True(t, errors.Is(err, ErrMalformedCoords))

	_, err = ParseCoords(strings.NewReader("\n1 2 3 4 x\n"))
	require.ErrorContains(t, err, "line 2")
	require.True(t, errors.Is(err, ErrMalformedCoords))

	coords, err := ParseCoords(strings.NewReader("\n1 2 3 4 5\n\n"))
	require.NoError(t, err)
	require.Len(t, coords, 1)
}
