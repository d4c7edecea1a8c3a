package extract

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/shapeview/asset"
	"github.com/achilleasa/shapeview/catalog"
	"github.com/achilleasa/shapeview/log"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidID     = errors.New("extract: invalid model id")
	ErrMissingMember = errors.New("extract: archive member not found")
)

type Options struct {
	// Directory containing the <name>.zip archives and their catalogs.
	SourceDir string

	// Output directory; each extracted model is written to <TargetDir>/<id>/.
	TargetDir string

	// Archive members extracted for each model.
	Members []string

	// Catalog record matcher.
	Matcher *catalog.Matcher

	// Max number of archives processed in parallel.
	Concurrency int
}

// The Extractor copies the members of catalog-selected models out of a
// collection of zip archives.
type Extractor struct {
	logger log.Logger
	opts   Options
}

// Create a new extractor.
func New(opts Options) (*Extractor, error) {
	if opts.Matcher == nil {
		return nil, errors.New("extract: no matcher specified")
	}
	if opts.TargetDir == "" {
		return nil, errors.New("extract: no target dir specified")
	}
	if len(opts.Members) == 0 {
		return nil, errors.New("extract: no archive members specified")
	}
	for _, member := range opts.Members {
		if member == "" || path.IsAbs(member) || hasDotDot(member) {
			return nil, errors.Errorf("extract: invalid archive member %q", member)
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Extractor{
		logger: log.New("extractor"),
		opts:   opts,
	}, nil
}

// Process a list of archive locations (local paths or http(s)/s3 URLs). If no
// archives are specified, all <SourceDir>/*.zip archives are processed.
//
// Catalogs are loaded first and each model id is assigned to the first archive
// (in list order) whose catalog selects it; later archives listing the same id
// skip it. Archives are then extracted in parallel.
//
// Per-model failures are logged and counted in the report; Run only fails if
// the archive list cannot be built, the target dir cannot be created or ctx
// is cancelled.
func (e *Extractor) Run(ctx context.Context, archives ...string) (*Report, error) {
	var err error
	if len(archives) == 0 {
		if archives, err = filepath.Glob(filepath.Join(e.opts.SourceDir, "*.zip")); err != nil {
			return nil, errors.Wrap(err, "extract: could not list archives")
		}
	}

	if err = os.MkdirAll(e.opts.TargetDir, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "extract: could not create target dir %s", e.opts.TargetDir)
	}

	spoolDir, err := os.MkdirTemp("", "shapeview-extract-")
	if err != nil {
		return nil, errors.Wrap(err, "extract: could not create spool dir")
	}
	defer os.RemoveAll(spoolDir)

	e.logger.Noticef("processing %d archives", len(archives))
	start := time.Now()

	plans := make([]*archivePlan, len(archives))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Concurrency)
	for idx, archive := range archives {
		idx, archive := idx, archive
		group.Go(func() error {
			plans[idx] = e.planArchive(archive, spoolDir)
			return groupCtx.Err()
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}

	e.claimModels(plans)

	group, groupCtx = errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Concurrency)
	for _, plan := range plans {
		plan := plan
		if len(plan.pending) == 0 {
			continue
		}
		group.Go(func() error {
			e.extractArchive(groupCtx, plan, spoolDir)
			return groupCtx.Err()
		})
	}
	err = group.Wait()

	report := &Report{Archives: make([]ArchiveReport, len(plans))}
	for idx, plan := range plans {
		report.Archives[idx] = plan.report
	}
	if err != nil {
		return report, err
	}

	totals := report.Totals()
	e.logger.Noticef(
		"extracted %d models (%d skipped, %d failed) from %d archives in %d ms",
		totals.Extracted, totals.Skipped, totals.Failed, len(archives), time.Since(start).Nanoseconds()/1e6,
	)
	return report, nil
}

// The models selected from a single archive.
type archivePlan struct {
	archive string
	report  ArchiveReport
	pending []string
}

// Load the catalog for an archive and select the matching model ids.
func (e *Extractor) planArchive(archive, spoolDir string) *archivePlan {
	name := archiveName(archive)
	plan := &archivePlan{
		archive: archive,
		report:  ArchiveReport{Archive: name},
	}

	catalogPath, cleanup, err := e.locateCatalog(archive, name, spoolDir)
	if err != nil {
		e.logger.Warningf("skipping archive %s: %s", name, err.Error())
		plan.report.Note = "no catalog"
		return plan
	}
	records, err := catalog.Load(catalogPath)
	cleanup()
	if err != nil {
		e.logger.Warningf("skipping archive %s: %s", name, err.Error())
		plan.report.Note = "bad catalog"
		return plan
	}

	plan.pending = e.opts.Matcher.Select(records)
	plan.report.Matched = len(plan.pending)
	if len(plan.pending) == 0 {
		e.logger.Infof("archive %s: no matching models", name)
	}
	return plan
}

// Assign each model id to the first plan that selects it and drop ids that
// are already extracted. Invalid ids stay pending so they are reported as
// failures by the archive that lists them.
func (e *Extractor) claimModels(plans []*archivePlan) {
	owners := make(map[string]string)
	for _, plan := range plans {
		name := plan.report.Archive
		pending := plan.pending[:0]
		for _, id := range plan.pending {
			if validateID(id) != nil {
				pending = append(pending, id)
				continue
			}

			if owner, claimed := owners[id]; claimed {
				e.logger.Debugf("archive %s: skipping model %s; already selected from archive %s", name, id, owner)
				plan.report.Skipped++
				continue
			}
			owners[id] = name

			if e.isExtracted(id) {
				e.logger.Debugf("archive %s: skipping already extracted model %s", name, id)
				plan.report.Skipped++
				continue
			}
			pending = append(pending, id)
		}
		plan.pending = pending
	}
}

// Extract the pending models of a plan.
func (e *Extractor) extractArchive(ctx context.Context, plan *archivePlan, spoolDir string) {
	rep := &plan.report
	name := rep.Archive

	archivePath, cleanup, err := spool(plan.archive, spoolDir)
	if err != nil {
		e.logger.Errorf("zip error: %s: %s", name, err.Error())
		rep.Failed += len(plan.pending)
		rep.Note = "unreadable archive"
		return
	}
	defer cleanup()

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		e.logger.Errorf("zip error: %s: %s", name, err.Error())
		rep.Failed += len(plan.pending)
		rep.Note = "unreadable archive"
		return
	}
	defer zr.Close()

	index := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		index[f.Name] = f
	}

	for _, id := range plan.pending {
		if ctx.Err() != nil {
			rep.Note = "interrupted"
			return
		}

		if err = e.extractModel(index, name, id); err != nil {
			e.logger.Errorf("zip error: %s, %s", name, id)
			e.logger.Debugf("archive %s: model %s: %s", name, id, err.Error())
			rep.Failed++
			continue
		}
		e.logger.Infof("archive %s: extracted model %s", name, id)
		rep.Extracted++
	}
}

// Returns true if all members for a model are present in the target dir.
func (e *Extractor) isExtracted(id string) bool {
	for _, member := range e.opts.Members {
		info, err := os.Stat(filepath.Join(e.opts.TargetDir, id, filepath.FromSlash(member)))
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

// Extract all members for a model into a staging dir inside the target dir
// and then move it to <TargetDir>/<id>. A previous partial extraction is
// replaced.
func (e *Extractor) extractModel(index map[string]*zip.File, name, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	stagingDir, err := os.MkdirTemp(e.opts.TargetDir, ".staging-")
	if err != nil {
		return errors.Wrap(err, "could not create staging dir")
	}
	defer os.RemoveAll(stagingDir)

	for _, member := range e.opts.Members {
		memberPath := path.Join(name, id, member)
		f, exists := index[memberPath]
		if !exists {
			return errors.Wrap(ErrMissingMember, memberPath)
		}

		if err = extractFile(f, filepath.Join(stagingDir, filepath.FromSlash(member))); err != nil {
			return errors.Wrapf(err, "could not extract %s", memberPath)
		}
	}

	dest := filepath.Join(e.opts.TargetDir, id)
	if err = os.RemoveAll(dest); err != nil {
		return errors.Wrapf(err, "could not remove partial extraction %s", dest)
	}
	if err = os.Rename(stagingDir, dest); err != nil {
		return errors.Wrapf(err, "could not move model to %s", dest)
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Model ids are used as directory names and must not escape the target dir.
func validateID(id string) error {
	if id == "" || id == "." || strings.ContainsAny(id, `/\`) || hasDotDot(id) {
		return errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return nil
}

func hasDotDot(p string) bool {
	for _, elem := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if elem == ".." {
			return true
		}
	}
	return false
}

// Get the archive name without its extension.
func archiveName(archive string) string {
	base := filepath.Base(archive)
	if u, err := url.Parse(archive); err == nil && u.Scheme != "" {
		base = path.Base(u.Path)
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// Find the catalog for an archive. Catalogs of remote archives are looked up
// next to the archive and spooled to a local file.
func (e *Extractor) locateCatalog(archive, name, spoolDir string) (string, func(), error) {
	if !isRemote(archive) {
		catalogPath, err := catalog.Find(filepath.Dir(archive), name)
		return catalogPath, func() {}, err
	}

	base := strings.TrimSuffix(archive, path.Ext(archive))
	for _, ext := range []string{".csv", ".parquet", ".jsonl"} {
		localPath, cleanup, err := spool(base+ext, spoolDir)
		if err == nil {
			return localPath, cleanup, nil
		}
		e.logger.Debugf("catalog %s%s not available: %s", base, ext, err.Error())
	}
	return "", nil, errors.Wrapf(catalog.ErrNotFound, "%s.{csv,parquet,jsonl}", base)
}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && u.Scheme != ""
}

// Get a local file for a resource. Local resources are used in place while
// remote resources are copied into spoolDir. The returned cleanup function
// removes any spooled copy.
func spool(location, spoolDir string) (string, func(), error) {
	res, err := asset.NewResource(location, nil)
	if err != nil {
		return "", nil, err
	}
	defer res.Close()

	if localPath, isLocal := res.LocalPath(); isLocal {
		return localPath, func() {}, nil
	}

	f, err := os.CreateTemp(spoolDir, "*-"+path.Base(res.RemotePath()))
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err = io.Copy(f, res); err != nil {
		f.Close()
		cleanup()
		return "", nil, errors.Wrapf(err, "could not download %s", location)
	}
	if err = f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
