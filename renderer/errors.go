package renderer

import "errors"

var (
	ErrEmptyScene       = errors.New("renderer: scene contains no triangles")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrInvalidFrameSize = errors.New("renderer: invalid frame dimensions")
	ErrInterrupted      = errors.New("renderer: interrupted while rendering")
)
