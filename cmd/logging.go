package cmd

import (
	"github.com/achilleasa/shapeview/log"
	"github.com/urfave/cli"
)

var logger = log.New("shapeview")

func setupLogging(ctx *cli.Context) {
	if levelName := ctx.GlobalString("log-level"); levelName != "" {
		level, err := log.ParseLevel(levelName)
		if err != nil {
			logger.Warningf("%s; using %s", err.Error(), level)
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
