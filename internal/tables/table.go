// Package tables detects table-like row clusters on a page, correlates them
// across consecutive pages, and renders them as structured text.
package tables

import "math"

// Rect is an axis-aligned box in page user space.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// EmptyRect is the identity for Union.
var EmptyRect = Rect{
	MinX: math.Inf(1),
	MinY: math.Inf(1),
	MaxX: math.Inf(-1),
	MaxY: math.Inf(-1),
}

// IsEmpty reports whether r encloses no point, as EmptyRect does.
func (r Rect) IsEmpty() bool { return r.MinX > r.MaxX || r.MinY > r.MaxY }

// Union returns the smallest Rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Cell is the trimmed text of one run inside a table row.
type Cell struct {
	Text string `json:"text"`
}

// Row is one table row, cells ordered left to right.
type Row struct {
	Cells []Cell `json:"cells"`
}

// Table is a detected grid, rows ordered top to bottom. The first row is
// rendered as the header.
type Table struct {
	Rows []Row `json:"rows"`
}

// Texts returns the table as a plain grid of cell strings.
func (t Table) Texts() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.Text
		}
		out[i] = cells
	}
	return out
}

// Candidate is a provisionally detected table on one page, before
// multi-page classification.
type Candidate struct {
	OriginPage int   `json:"origin_page"`
	Index      int   `json:"index"`     // 1-based detection order on the page
	BBox       Rect  `json:"bbox"`      // content box of the whole page
	RowsBBox   Rect  `json:"rows_bbox"` // extent of the candidate's own rows
	Table      Table `json:"table"`
}

// Status is the multi-page classification of a detected table.
type Status string

const (
	SinglePage            Status = "single_page"
	MultiPageOrigin       Status = "multi_page_origin"
	MultiPageContinuation Status = "multi_page_continuation"
)

// Record is a classified table. Continuation records point at the root
// origin through ContinuationOf and carry no rows.
type Record struct {
	ID             string `json:"table_id"`
	OriginPage     int    `json:"origin_page"`
	Index          int    `json:"index"`
	Status         Status `json:"status"`
	Table          Table  `json:"table"`
	ContinuationOf string `json:"continuation_of,omitempty"`
}

// Rendered reports whether the record produces a table block on its page.
func (r *Record) Rendered() bool { return r.Status != MultiPageContinuation }
