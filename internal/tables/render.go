package tables

import (
	"fmt"
	"strings"
)

const emptyCell = "[Empty]"

var (
	blockRule  = strings.Repeat("=", 50)
	headerRule = strings.Repeat("-", 60)
)

// Render formats a table as a bordered text block: the first row is the
// header, the remaining rows are numbered data rows. Empty cells are shown
// as [Empty] so that columns stay aligned for the reader.
func Render(t Table, n int) string {
	if len(t.Rows) == 0 {
		return fmt.Sprintf("TABLE %d: [Empty table]", n)
	}

	grid := t.Texts()
	lines := []string{
		fmt.Sprintf("TABLE %d:", n),
		blockRule,
		"HEADER:",
		joinCells(grid[0]),
		headerRule,
	}
	if len(grid) > 1 {
		lines = append(lines, "DATA:")
		for i, row := range grid[1:] {
			lines = append(lines, fmt.Sprintf("Row %d: %s", i+1, joinCells(row)))
		}
	}
	lines = append(lines, blockRule, fmt.Sprintf("END TABLE %d", n))
	return strings.Join(lines, "\n")
}

func joinCells(row []string) string {
	cells := make([]string, len(row))
	for i, c := range row {
		text := strings.TrimSpace(c)
		if text == "" {
			text = emptyCell
		}
		cells[i] = text
	}
	return strings.Join(cells, " | ")
}
