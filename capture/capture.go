package capture

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/asset/scene/reader"
	"github.com/achilleasa/shapeview/log"
	"github.com/achilleasa/shapeview/renderer"
	"github.com/achilleasa/shapeview/types"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Output file suffixes for each view.
const (
	ColorSuffix  = ".png"
	DepthSuffix  = "_depth.png"
	NormalSuffix = "_normal.png"
	AlbedoSuffix = "_albedo.png"
	CoordSuffix  = "_coord.txt"
)

// Output suffixes for the frame passes in render order.
var passSuffixes = []string{ColorSuffix, DepthSuffix, NormalSuffix, AlbedoSuffix}

type Options struct {
	// Views are written to <OutputDir>/<model id>/.
	OutputDir string

	// Number of views evenly spaced around the object.
	Views int

	// Frame dims and supersampling factor.
	FrameW      uint32
	FrameH      uint32
	Supersample uint32

	// Render block workers per view and number of views rendered in parallel.
	Workers     int
	Concurrency int

	// Convert Y-up models to the Z-up world.
	ConvertYUp bool

	// Mesh processing.
	Center          bool
	RemoveDoubles   bool
	DoubleThreshold float32
	EdgeSplit       bool
	SplitAngle      float32

	// Camera FOV in degrees and its offset from the orbit pivot for the first view.
	FOV          float32
	CameraOffset types.Vec3

	// Skip views whose coord file already exists.
	SkipExisting bool
}

// Capture run summary.
type Result struct {
	ModelID   string
	OutputDir string
	Rendered  int
	Skipped   int
	BBox      scene.BBox
	Elapsed   time.Duration
}

// The Capturer renders multi-view captures of models.
type Capturer struct {
	logger log.Logger
	opts   Options
}

// Create a new capturer.
func New(opts Options) (*Capturer, error) {
	if opts.Views <= 0 {
		return nil, errors.Errorf("capture: number of views must be positive; got %d", opts.Views)
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, renderer.ErrInvalidFrameSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.FOV <= 0 {
		opts.FOV = scene.DefaultFOV
	}

	return &Capturer{
		logger: log.New("capture"),
		opts:   opts,
	}, nil
}

// Get the output prefix for a view.
func ViewPrefix(outputDir, modelID string, view int) string {
	return filepath.Join(outputDir, modelID, fmt.Sprintf("%s_r_%03d", modelID, view))
}

// Get the model id for an obj file; this is the name of its parent dir.
func ModelID(objPath string) string {
	if abs, err := filepath.Abs(objPath); err == nil {
		objPath = abs
	}
	return filepath.Base(filepath.Dir(objPath))
}

// Load and process the model at objPath and render all views.
func (c *Capturer) Run(ctx context.Context, objPath string) (*Result, error) {
	start := time.Now()

	sc, err := reader.ReadScene(objPath)
	if err != nil {
		return nil, errors.Wrapf(err, "capture: could not read %s", objPath)
	}
	c.PrepareScene(sc)
	if sc.IsEmpty() {
		return nil, errors.Wrapf(renderer.ErrEmptyScene, "capture: %s", objPath)
	}

	modelID := ModelID(objPath)
	res := &Result{
		ModelID:   modelID,
		OutputDir: filepath.Join(c.opts.OutputDir, modelID),
		BBox:      sc.BBox(),
	}
	if err = os.MkdirAll(res.OutputDir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "capture: could not create output dir %s", res.OutputDir)
	}

	ropts := renderer.Options{
		FrameW:      c.opts.FrameW,
		FrameH:      c.opts.FrameH,
		Supersample: c.opts.Supersample,
		Workers:     c.opts.Workers,
	}

	// Each concurrent view renderer keeps its own block schedule
	pool := make(chan *renderer.Rasterizer, c.opts.Concurrency)
	for i := 0; i < c.opts.Concurrency; i++ {
		r, err := renderer.NewRasterizer(sc, renderer.PerfectScheduler(), ropts)
		if err != nil {
			return nil, err
		}
		pool <- r
	}

	c.logger.Noticef("capturing %d views of model %s", c.opts.Views, modelID)

	var rendered, skipped int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.opts.Concurrency)
	for view := 0; view < c.opts.Views; view++ {
		view := view
		prefix := ViewPrefix(c.opts.OutputDir, modelID, view)
		if c.opts.SkipExisting {
			if _, err := os.Stat(prefix + CoordSuffix); err == nil {
				c.logger.Debugf("skipping existing view %s", prefix)
				skipped++
				continue
			}
		}

		group.Go(func() error {
			r := <-pool
			defer func() { pool <- r }()

			if err := c.captureView(groupCtx, r, res.BBox, view, prefix); err != nil {
				return errors.Wrapf(err, "capture: view %d", view)
			}
			atomic.AddInt64(&rendered, 1)
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}

	res.Rendered = int(rendered)
	res.Skipped = int(skipped)
	res.Elapsed = time.Since(start)
	c.logger.Noticef(
		"captured model %s: %d views rendered, %d skipped in %d ms",
		modelID, res.Rendered, res.Skipped, res.Elapsed.Nanoseconds()/1e6,
	)
	return res, nil
}

// Apply the configured mesh processing steps.
func (c *Capturer) PrepareScene(sc *scene.Scene) {
	if c.opts.ConvertYUp {
		sc.ToZUp()
	}
	if c.opts.RemoveDoubles {
		removed := sc.RemoveDoubles(c.opts.DoubleThreshold)
		c.logger.Infof("removed %d duplicate vertices", removed)
	}
	if c.opts.EdgeSplit {
		sc.EdgeSplit(c.opts.SplitAngle)
	}
	if c.opts.Center {
		offset := sc.Center()
		c.logger.Debugf("centered model; offset %v", offset)
	}
}

// Setup the camera for a view. Views are evenly spaced around the +Z axis.
func (c *Capturer) viewCamera(view int) *scene.Camera {
	yaw := float32(float64(view) * 2.0 * math.Pi / float64(c.opts.Views))

	cam := scene.NewCamera(c.opts.FOV)
	cam.SetupProjection(c.opts.FrameW, c.opts.FrameH)
	cam.Orbit(c.opts.CameraOffset, yaw)
	return cam
}

// Render a view and write its passes and bbox coords. The coord file is
// written last so that its presence marks a complete view.
func (c *Capturer) captureView(ctx context.Context, r *renderer.Rasterizer, bbox scene.BBox, view int, prefix string) error {
	cam := c.viewCamera(view)

	frame, err := r.Render(ctx, cam)
	if err != nil {
		return err
	}
	c.logger.Debugf("view %d frame statistics\n%s", view, r.Stats().Table())

	for index, pass := range frame.Passes() {
		outFile := prefix + passSuffixes[index]
		if err = imgio.Save(outFile, pass, imgio.PNGEncoder()); err != nil {
			return errors.Wrapf(err, "could not write %s", outFile)
		}
	}

	if err = SaveCoords(prefix+CoordSuffix, ProjectCorners(bbox, cam)); err != nil {
		return errors.Wrapf(err, "could not write %s", prefix+CoordSuffix)
	}

	c.logger.Infof("rendered view %d (%s)", view, filepath.Base(prefix))
	return nil
}
