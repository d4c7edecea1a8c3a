package cmd

import (
	"errors"

	"github.com/achilleasa/shapeview/capture"
	"github.com/achilleasa/shapeview/config"
	"github.com/achilleasa/shapeview/types"
	"github.com/urfave/cli"
)

// Render multi-view captures for a list of models.
func CaptureViews(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing model file argument")
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	opts := &cfg.Capture
	overrideString(ctx, "output", &opts.OutputDir)
	overrideInt(ctx, "views", &opts.Views)
	overrideInt(ctx, "width", &opts.Width)
	overrideInt(ctx, "height", &opts.Height)
	overrideInt(ctx, "supersample", &opts.Supersample)
	overrideInt(ctx, "workers", &opts.Workers)
	overrideInt(ctx, "concurrency", &opts.Concurrency)
	overrideString(ctx, "up-axis", &opts.UpAxis)
	overrideBool(ctx, "skip-existing", &opts.SkipExisting)
	if ctx.Bool("no-center") {
		opts.Center = false
	}
	if ctx.Bool("no-remove-doubles") {
		opts.RemoveDoubles = false
	}
	if ctx.Bool("no-edge-split") {
		opts.EdgeSplit = false
	}

	if err = opts.Validate(); err != nil {
		return err
	}

	capturer, err := capture.New(captureOptions(opts))
	if err != nil {
		return err
	}

	runCtx, cancel := signalContext()
	defer cancel()

	for _, objPath := range ctx.Args() {
		res, err := capturer.Run(runCtx, objPath)
		if err != nil {
			return err
		}
		logger.Noticef("wrote %d views for model %s to %s", res.Rendered, res.ModelID, res.OutputDir)
	}

	return nil
}

func captureOptions(opts *config.Capture) capture.Options {
	return capture.Options{
		OutputDir:       opts.OutputDir,
		Views:           opts.Views,
		FrameW:          uint32(opts.Width),
		FrameH:          uint32(opts.Height),
		Supersample:     uint32(opts.Supersample),
		Workers:         opts.Workers,
		Concurrency:     opts.Concurrency,
		ConvertYUp:      opts.UpAxis == config.UpAxisY,
		Center:          opts.Center,
		RemoveDoubles:   opts.RemoveDoubles,
		DoubleThreshold: opts.DoubleThreshold,
		EdgeSplit:       opts.EdgeSplit,
		SplitAngle:      opts.SplitAngle,
		FOV:             opts.FOV,
		CameraOffset:    types.Vec3(opts.CameraOffset),
		SkipExisting:    opts.SkipExisting,
	}
}
