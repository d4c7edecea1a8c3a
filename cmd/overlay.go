package cmd

import (
	"errors"
	"image/color"
	"strings"

	"github.com/achilleasa/shapeview/overlay"
	"github.com/urfave/cli"
)

// Draw the projected bbox of a rendered view.
func OverlayBBox(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing view image argument")
	}
	imagePath := ctx.Args().First()

	outPath := ctx.String("out")
	if outPath == "" {
		outPath = strings.TrimSuffix(imagePath, ".png") + "_overlay.png"
	}

	opts := overlay.Options{
		LineWidth: float32(ctx.Float64("line-width")),
	}
	switch ctx.String("background") {
	case "white":
		opts.Background = color.White
	case "black":
		opts.Background = color.Black
	case "", "none":
	default:
		return errors.New("background must be one of: none, white, black")
	}

	if err := overlay.Render(imagePath, ctx.String("coords"), outPath, opts); err != nil {
		return err
	}

	logger.Noticef("wrote bbox overlay to %s", outPath)
	return nil
}
