package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/shapeview/cmd"
	"github.com/achilleasa/shapeview/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

func main() {
	// Load .env file if present. This must happen before the flags are
	// parsed so that it can supply flag env vars.
	_ = godotenv.Load()

	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "shapeview"
	app.Usage = "extract shape collection models and render multi-view captures"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log level: debug, info, notice, warning or error",
			EnvVar: "SHAPEVIEW_LOG_LEVEL",
		},
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "load settings from a yaml config file",
			EnvVar: "SHAPEVIEW_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "extract",
			Usage: "extract models whose catalog lemmas match a set of keywords",
			Description: `
Scan a directory of <name>.zip model archives. Each archive is accompanied by a
<name>.csv, <name>.parquet or <name>.jsonl catalog with fullId and wnlemmas
columns. The members of every model whose lemmas match one of the keywords are
extracted to <target>/<model id>/.

Models that have already been extracted are skipped. Archives may also be
given as arguments, including http(s):// and s3:// locations.`,
			ArgsUsage: "[archive1.zip archive2.zip ...]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "source, s",
					Usage:  "directory containing the model archives and catalogs",
					EnvVar: config.EnvSourceDir,
				},
				cli.StringFlag{
					Name:   "target, t",
					Usage:  "output directory for extracted models",
					EnvVar: config.EnvTargetDir,
				},
				cli.StringSliceFlag{
					Name:  "keyword, k",
					Usage: "catalog lemma keyword; may be specified multiple times",
				},
				cli.StringSliceFlag{
					Name:  "member, m",
					Usage: "archive member to extract for each model; may be specified multiple times",
				},
				cli.StringFlag{
					Name:  "match-mode",
					Value: "substring",
					Usage: "keyword matching mode: substring or word",
				},
				cli.BoolFlag{
					Name:  "fold-case",
					Usage: "ignore case when matching keywords",
				},
				cli.IntFlag{
					Name:  "concurrency",
					Value: 2,
					Usage: "number of archives to process in parallel",
				},
			},
			Action: cmd.ExtractModels,
		},
		{
			Name:  "capture",
			Usage: "render multi-view captures of a model",
			Description: `
Render a number of views of each model while orbiting the camera around it.
For each view i the following files are written to <output>/<model id>/:

  <model id>_r_<iii>.png          color
  <model id>_r_<iii>_depth.png    depth
  <model id>_r_<iii>_normal.png   camera-space normals
  <model id>_r_<iii>_albedo.png   albedo
  <model id>_r_<iii>_coord.txt    bbox corners and their pixel coordinates

The model id is the name of the directory containing the model file.`,
			ArgsUsage: "model1.obj model2.obj ...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:   "output, o",
					Usage:  "output directory",
					EnvVar: config.EnvOutputDir,
				},
				cli.IntFlag{
					Name:  "views",
					Value: 36,
					Usage: "number of views",
				},
				cli.IntFlag{
					Name:  "width",
					Value: 600,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 600,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "supersample",
					Value: 2,
					Usage: "supersampling factor for antialiasing",
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "render workers per view (default: number of CPUs)",
				},
				cli.IntFlag{
					Name:  "concurrency",
					Value: 1,
					Usage: "number of views to render in parallel",
				},
				cli.StringFlag{
					Name:  "up-axis",
					Value: "y",
					Usage: "model up axis: y or z",
				},
				cli.BoolFlag{
					Name:  "no-center",
					Usage: "do not move the model bbox center to the origin",
				},
				cli.BoolFlag{
					Name:  "no-remove-doubles",
					Usage: "do not merge duplicate vertices",
				},
				cli.BoolFlag{
					Name:  "no-edge-split",
					Usage: "do not smooth normals across shallow edges",
				},
				cli.BoolFlag{
					Name:  "skip-existing",
					Usage: "skip views whose coord file already exists",
				},
			},
			Action: cmd.CaptureViews,
		},
		{
			Name:  "overlay",
			Usage: "draw the projected bbox of a rendered view",
			Description: `
Read a rendered view and its coord file and draw the six faces of the model
bbox as closed polygons. The coord file defaults to the one written for the
view by the capture command.`,
			ArgsUsage: "view.png",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "coords",
					Usage: "coord file (default: derived from the image name)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output image (default: <view>_overlay.png)",
				},
				cli.Float64Flag{
					Name:  "line-width",
					Value: 1.5,
					Usage: "outline width in pixels",
				},
				cli.StringFlag{
					Name:  "background",
					Value: "white",
					Usage: "composite transparent views over a background: none, white or black",
				},
			},
			Action: cmd.OverlayBBox,
		},
		{
			Name:      "info",
			Usage:     "print model statistics",
			ArgsUsage: "model.obj (or - to read the model from stdin)",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "process",
					Usage: "apply the capture mesh processing before collecting stats",
				},
			},
			Action: cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
