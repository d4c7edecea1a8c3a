package reader

import (
	"fmt"
	"io"
	"strings"

	"github.com/achilleasa/shapeview/asset"
	"github.com/achilleasa/shapeview/asset/scene"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file.
func ReadScene(filename string) (*scene.Scene, error) {
	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(strings.ToLower(filename), ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format for %s", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}

// Read a wavefront scene from a stream. Relative material libraries are
// resolved against name.
func ReadSceneStream(name string, source io.Reader) (*scene.Scene, error) {
	return newWavefrontReader().Read(asset.NewResourceFromStream(name, source))
}
