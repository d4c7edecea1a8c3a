package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/shapeview/catalog"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var defaultMembers = []string{"model.obj", "model.mtl"}

// Write <dir>/<name>.zip containing the given members.
func writeArchive(t *testing.T, dir, name string, members map[string]string) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, name+".zip"))
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for memberPath, content := range members {
		w, err := zw.Create(memberPath)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func writeCatalog(t *testing.T, dir, name string, rows ...string) {
	t.Helper()
	payload := "fullId,wnlemmas\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(payload), 0644))
}

func modelMembers(name, id string) map[string]string {
	return map[string]string{
		name + "/" + id + "/model.obj": "obj " + id,
		name + "/" + id + "/model.mtl": "mtl " + id,
	}
}

func mergeMembers(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func newTestExtractor(t *testing.T, sourceDir, targetDir string) *Extractor {
	t.Helper()
	matcher, err := catalog.NewMatcher([]string{"car", "truck"}, catalog.MatchSubstring, false)
	require.NoError(t, err)

	e, err := New(Options{
		SourceDir:   sourceDir,
		TargetDir:   targetDir,
		Members:     defaultMembers,
		Matcher:     matcher,
		Concurrency: 2,
	})
	require.NoError(t, err)
	return e
}

func requireModel(t *testing.T, targetDir, id string) {
	t.Helper()
	for _, member := range defaultMembers {
		data, err := os.ReadFile(filepath.Join(targetDir, id, member))
		require.NoError(t, err)
		require.Equal(t, member[len("model."):]+" "+id, string(data))
	}
}

func TestExtractMatchingModels(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), filepath.Join(t.TempDir(), "models")

	writeArchive(t, sourceDir, "02958343", mergeMembers(
		modelMembers("02958343", "aaa"),
		modelMembers("02958343", "bbb"),
		modelMembers("02958343", "ccc"),
	))
	writeCatalog(t, sourceDir, "02958343",
		"3dw.aaa,\"car,auto\"",
		"3dw.bbb,chair",
		"3dw.ccc,truck",
	)

	report, err := newTestExtractor(t, sourceDir, targetDir).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []ArchiveReport{
		{Archive: "02958343", Matched: 2, Extracted: 2},
	}, report.Archives)

	requireModel(t, targetDir, "aaa")
	requireModel(t, targetDir, "ccc")
	require.NoDirExists(t, filepath.Join(targetDir, "bbb"))

	// No staging or archive-named dirs are left behind
	entries, err := os.ReadDir(targetDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Contains(t, report.Table(), "TOTAL")
}

func TestExtractIsIdempotent(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()

	writeArchive(t, sourceDir, "02958343", mergeMembers(
		modelMembers("02958343", "aaa"),
		modelMembers("02958343", "ccc"),
	))
	writeCatalog(t, sourceDir, "02958343", "3dw.aaa,car", "3dw.ccc,car")

	e := newTestExtractor(t, sourceDir, targetDir)
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	// Simulate a partial extraction for ccc
	require.NoError(t, os.Remove(filepath.Join(targetDir, "ccc", "model.mtl")))
	require.NoError(t, os.WriteFile(filepath.Join(targetDir, "ccc", "stale.txt"), nil, 0644))

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, ArchiveReport{Archive: "02958343", Matched: 2, Extracted: 1, Skipped: 1}, report.Archives[0])

	requireModel(t, targetDir, "ccc")
	require.NoFileExists(t, filepath.Join(targetDir, "ccc", "stale.txt"))
}

func TestExtractFailuresDoNotAbort(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()

	members := mergeMembers(
		modelMembers("02958343", "aaa"),
		modelMembers("02958343", "ddd"),
	)
	delete(members, "02958343/aaa/model.mtl")
	writeArchive(t, sourceDir, "02958343", members)
	writeCatalog(t, sourceDir, "02958343",
		"3dw.aaa,car",
		"3dw.../evil,car",
		"3dw.missing,car",
		"3dw.ddd,car",
	)

	report, err := newTestExtractor(t, sourceDir, targetDir).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, ArchiveReport{Archive: "02958343", Matched: 4, Extracted: 1, Failed: 3}, report.Archives[0])

	requireModel(t, targetDir, "ddd")
	require.NoDirExists(t, filepath.Join(targetDir, "aaa"))
	require.NoDirExists(t, filepath.Join(targetDir, "missing"))
	require.NoDirExists(t, filepath.Join(filepath.Dir(targetDir), "evil"))
}

func TestExtractMultipleArchives(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()

	writeArchive(t, sourceDir, "02958343", modelMembers("02958343", "aaa"))
	writeCatalog(t, sourceDir, "02958343", "3dw.aaa,car")
	writeArchive(t, sourceDir, "04490091", modelMembers("04490091", "bbb"))
	writeCatalog(t, sourceDir, "04490091", "3dw.bbb,truck")
	writeArchive(t, sourceDir, "03001627", modelMembers("03001627", "ccc"))
	writeArchive(t, sourceDir, "03001628", nil)
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "03001628.csv"), []byte("id\n1\n"), 0644))

	report, err := newTestExtractor(t, sourceDir, targetDir).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []ArchiveReport{
		{Archive: "02958343", Matched: 1, Extracted: 1},
		{Archive: "03001627", Note: "no catalog"},
		{Archive: "03001628", Note: "bad catalog"},
		{Archive: "04490091", Matched: 1, Extracted: 1},
	}, report.Archives)
	require.Equal(t, 2, report.Totals().Extracted)

	requireModel(t, targetDir, "aaa")
	requireModel(t, targetDir, "bbb")
}

func TestExtractDuplicateModelAcrossArchives(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()

	names := []string{"02958343", "02958344", "02958345", "02958346", "02958347", "02958348"}
	for _, name := range names {
		writeArchive(t, sourceDir, name, map[string]string{
			name + "/dupid/model.obj": "obj " + name + strings.Repeat("#", 1<<20),
			name + "/dupid/model.mtl": "mtl " + name,
		})
		writeCatalog(t, sourceDir, name, "3dw.dupid,car")
	}

	matcher, err := catalog.NewMatcher([]string{"car"}, catalog.MatchSubstring, false)
	require.NoError(t, err)
	e, err := New(Options{
		SourceDir:   sourceDir,
		TargetDir:   targetDir,
		Members:     defaultMembers,
		Matcher:     matcher,
		Concurrency: len(names),
	})
	require.NoError(t, err)

	for run := 0; run < 3; run++ {
		require.NoError(t, os.RemoveAll(targetDir))

		report, err := e.Run(context.Background())
		require.NoError(t, err)

		totals := report.Totals()
		require.Equal(t, 1, totals.Extracted)
		require.Equal(t, len(names)-1, totals.Skipped)
		require.Equal(t, 0, totals.Failed)
		require.Equal(t, ArchiveReport{Archive: names[0], Matched: 1, Extracted: 1}, report.Archives[0])

		// The first archive in sorted order provides the model
		data, err := os.ReadFile(filepath.Join(targetDir, "dupid", "model.mtl"))
		require.NoError(t, err)
		require.Equal(t, "mtl "+names[0], string(data))
	}
}

func TestExtractRemoteArchive(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()

	writeArchive(t, sourceDir, "02958343", modelMembers("02958343", "aaa"))
	writeCatalog(t, sourceDir, "02958343", "3dw.aaa,car")

	srv := httptest.NewServer(http.FileServer(http.Dir(sourceDir)))
	defer srv.Close()

	report, err := newTestExtractor(t, "", targetDir).Run(context.Background(), srv.URL+"/02958343.zip")
	require.NoError(t, err)
	require.Equal(t, ArchiveReport{Archive: "02958343", Matched: 1, Extracted: 1}, report.Archives[0])
	requireModel(t, targetDir, "aaa")
}

func TestExtractCancelled(t *testing.T) {
	sourceDir, targetDir := t.TempDir(), t.TempDir()

	writeArchive(t, sourceDir, "02958343", modelMembers("02958343", "aaa"))
	writeCatalog(t, sourceDir, "02958343", "3dw.aaa,car")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(t, sourceDir, targetDir).Run(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.NoDirExists(t, filepath.Join(targetDir, "aaa"))
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"aaa", "1a0bc9ab92c9", "model.v2"} {
		require.NoError(t, validateID(id))
	}
	for _, id := range []string{"", ".", "..", "../evil", "a/b", `a\b`} {
		require.Truef(t, errors.Is(validateID(id), ErrInvalidID), "id %q", id)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	matcher, err := catalog.NewMatcher([]string{"car"}, catalog.MatchSubstring, false)
	require.NoError(t, err)

	_, err = New(Options{TargetDir: "out", Members: defaultMembers})
	require.Error(t, err)

	_, err = New(Options{TargetDir: "out", Members: []string{"../model.obj"}, Matcher: matcher})
	require.ErrorContains(t, err, "invalid archive member")
}
