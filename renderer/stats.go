package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

type BlockStat struct {
	// The worker id.
	Id string

	// The block start row, height and the percentage of total frame area it represents.
	BlockY       uint32
	BlockH       uint32
	FramePercent float32

	// Number of rasterized triangles that overlap the block.
	Triangles int

	// Render time for assigned block
	RenderTime time.Duration
}

type FrameStats struct {
	// Individual block stats.
	Blocks []BlockStat

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Format frame statistics as a table.
func (fs FrameStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Block start", "Block height", "% of frame", "Triangles", "Render time"})
	for _, stat := range fs.Blocks {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.BlockY),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Triangles),
			stat.RenderTime.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", "TOTAL", fs.RenderTime.String()})

	table.Render()
	return buf.String()
}
