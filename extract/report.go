package extract

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

// Extraction counters for a single archive.
type ArchiveReport struct {
	Archive string

	// Number of catalog models matching the keywords.
	Matched int

	Extracted int
	Skipped   int
	Failed    int

	// Set when the archive could not be processed.
	Note string
}

type Report struct {
	Archives []ArchiveReport
}

// Sum the counters of all archives.
func (r *Report) Totals() ArchiveReport {
	totals := ArchiveReport{Archive: "TOTAL"}
	for _, rep := range r.Archives {
		totals.Matched += rep.Matched
		totals.Extracted += rep.Extracted
		totals.Skipped += rep.Skipped
		totals.Failed += rep.Failed
	}
	return totals
}

// Format the report as a table.
func (r *Report) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Archive", "Matched", "Extracted", "Skipped", "Failed", "Note"})
	for _, rep := range r.Archives {
		table.Append([]string{
			rep.Archive,
			fmt.Sprintf("%d", rep.Matched),
			fmt.Sprintf("%d", rep.Extracted),
			fmt.Sprintf("%d", rep.Skipped),
			fmt.Sprintf("%d", rep.Failed),
			rep.Note,
		})
	}

	totals := r.Totals()
	table.SetFooter([]string{
		totals.Archive,
		fmt.Sprintf("%d", totals.Matched),
		fmt.Sprintf("%d", totals.Extracted),
		fmt.Sprintf("%d", totals.Skipped),
		fmt.Sprintf("%d", totals.Failed),
		" ",
	})

	table.Render()
	return buf.String()
}
