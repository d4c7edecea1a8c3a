package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/achilleasa/shapeview/config"
	"github.com/urfave/cli"
)

// Load the config file specified by the global --config flag. Command flags
// that were explicitly set (or supplied through their env var) are applied
// on top of the loaded values by each command.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfgFile := ctx.GlobalString("config")
	if cfgFile != "" {
		logger.Infof("loading config from %s", cfgFile)
	}
	return config.Load(cfgFile)
}

// Get a context that is cancelled when the process receives SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func overrideString(ctx *cli.Context, name string, target *string) {
	if ctx.IsSet(name) {
		*target = ctx.String(name)
	}
}

func overrideInt(ctx *cli.Context, name string, target *int) {
	if ctx.IsSet(name) {
		*target = ctx.Int(name)
	}
}

func overrideBool(ctx *cli.Context, name string, target *bool) {
	if ctx.IsSet(name) {
		*target = ctx.Bool(name)
	}
}

func overrideStringSlice(ctx *cli.Context, name string, target *[]string) {
	if ctx.IsSet(name) {
		*target = ctx.StringSlice(name)
	}
}
