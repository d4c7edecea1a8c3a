package cmd

import (
	"errors"

	"github.com/achilleasa/shapeview/catalog"
	"github.com/achilleasa/shapeview/extract"
	"github.com/urfave/cli"
)

// Extract catalog-selected models from a set of archives.
func ExtractModels(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	opts := &cfg.Extract
	overrideString(ctx, "source", &opts.SourceDir)
	overrideString(ctx, "target", &opts.TargetDir)
	overrideStringSlice(ctx, "keyword", &opts.Keywords)
	overrideStringSlice(ctx, "member", &opts.Members)
	overrideString(ctx, "match-mode", &opts.MatchMode)
	overrideBool(ctx, "fold-case", &opts.FoldCase)
	overrideInt(ctx, "concurrency", &opts.Concurrency)

	if err = opts.Validate(); err != nil {
		return err
	}
	if opts.TargetDir == "" {
		return errors.New("missing target dir")
	}
	if opts.SourceDir == "" && ctx.NArg() == 0 {
		return errors.New("missing source dir or archive arguments")
	}

	matcher, err := catalog.NewMatcher(opts.Keywords, opts.MatchMode, opts.FoldCase)
	if err != nil {
		return err
	}

	extractor, err := extract.New(extract.Options{
		SourceDir:   opts.SourceDir,
		TargetDir:   opts.TargetDir,
		Members:     opts.Members,
		Matcher:     matcher,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := signalContext()
	defer cancel()

	report, err := extractor.Run(runCtx, ctx.Args()...)
	if report != nil {
		logger.Noticef("extraction report\n%s", report.Table())
	}
	return err
}
