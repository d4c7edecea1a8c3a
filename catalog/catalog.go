package catalog

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/achilleasa/shapeview/log"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// Supported catalog extensions in lookup order.
var catalogExtensions = []string{".csv", ".parquet", ".jsonl"}

// Catalog column names.
const (
	columnFullID   = "fullId"
	columnWNLemmas = "wnlemmas"
)

var (
	ErrNotFound          = errors.New("catalog: no catalog found")
	ErrUnsupportedFormat = errors.New("catalog: unsupported catalog format")
)

var logger = log.New("catalog")

// A catalog row describing a model.
type Record struct {
	FullID   string `parquet:"fullId" json:"fullId"`
	WNLemmas string `parquet:"wnlemmas" json:"wnlemmas"`
}

// Find the catalog that accompanies archive <dir>/<name>.zip.
func Find(dir, name string) (string, error) {
	for _, ext := range catalogExtensions {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "%s/%s.{csv,parquet,jsonl}", dir, name)
}

// Load catalog records. The format is selected by the file extension.
func Load(path string) ([]Record, error) {
	var (
		records []Record
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = loadCSV(path)
	case ".parquet":
		records, err = loadParquet(path)
	case ".jsonl":
		records, err = loadJSONL(path)
	default:
		return nil, errors.Wrap(ErrUnsupportedFormat, path)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "catalog: could not load %s", path)
	}

	logger.Debugf("loaded %d records from %s", len(records), path)
	return records, nil
}

func loadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "could not read header")
	}

	idCol, lemmaCol := -1, -1
	for col, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case columnFullID:
			idCol = col
		case columnWNLemmas:
			lemmaCol = col
		}
	}
	if idCol == -1 || lemmaCol == -1 {
		return nil, errors.Errorf("header must contain %q and %q columns", columnFullID, columnWNLemmas)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		var rec Record
		if idCol < len(row) {
			rec.FullID = row[idCol]
		}
		if lemmaCol < len(row) {
			rec.WNLemmas = row[lemmaCol]
		}
		records = append(records, rec)
	}

	return records, nil
}

func loadParquet(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, err
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	records := make([]Record, 0, pf.NumRows())
	rows := make([]Record, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
	}

	return records, nil
}

func loadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
