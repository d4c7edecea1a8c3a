package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/achilleasa/shapeview/asset/scene"
	"github.com/achilleasa/shapeview/asset/scene/reader"
	"github.com/achilleasa/shapeview/capture"
	"github.com/urfave/cli"
)

// Display model info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing model file argument")
	}

	var (
		sc  *scene.Scene
		err error
	)
	sceneFile := ctx.Args().First()
	switch {
	case sceneFile == "-":
		sc, err = reader.ReadSceneStream("stdin.obj", os.Stdin)
	case strings.HasSuffix(strings.ToLower(sceneFile), ".obj"):
		sc, err = reader.ReadScene(sceneFile)
	default:
		return errors.New("only wavefront models with a .obj extension are supported")
	}
	if err != nil {
		return err
	}

	if ctx.Bool("process") {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		capturer, err := capture.New(captureOptions(&cfg.Capture))
		if err != nil {
			return err
		}
		capturer.PrepareScene(sc)
	}

	// Display scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return nil
}
