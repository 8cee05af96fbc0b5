package tables

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

const (
	// DefaultRowMergeDistance is the largest vertical gap between two
	// consecutive multi-run rows that still belong to the same table.
	DefaultRowMergeDistance = 20.0

	// DefaultMultiPageRatio is the fraction of the viewport height the page
	// content must cross before a table may continue on the next page.
	DefaultMultiPageRatio = 0.9
)

// Detector proposes table candidates by clustering runs that share a
// baseline with at least one other run.
type Detector struct {
	RowMergeDistance float64
}

// NewDetector returns a Detector using the default thresholds.
func NewDetector() *Detector {
	return &Detector{RowMergeDistance: DefaultRowMergeDistance}
}

type clusterRow struct {
	y    float64
	runs []doctree.TextRun
}

// Detect returns the page's candidates in top-to-bottom order together with
// the page's content box. Non-finite run geometry is reported as an error.
func (d *Detector) Detect(page doctree.Page) ([]Candidate, Rect, error) {
	if len(page.Runs) == 0 {
		return nil, EmptyRect, nil
	}
	mergeDist := d.RowMergeDistance
	if mergeDist <= 0 {
		mergeDist = DefaultRowMergeDistance
	}

	rows := make(map[float64][]doctree.TextRun)
	bbox := EmptyRect
	for i, run := range page.Runs {
		if !finite(run.X, run.Y, run.Width, run.Height) {
			return nil, EmptyRect, fmt.Errorf("run %d has non-finite geometry (x=%v y=%v w=%v h=%v)",
				i, run.X, run.Y, run.Width, run.Height)
		}
		y := math.Round(run.Y)
		rows[y] = append(rows[y], run)
		bbox = bbox.Union(Rect{
			MinX: run.X,
			MinY: y - run.Height,
			MaxX: run.X + run.Width,
			MaxY: y,
		})
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	var clusters [][]clusterRow
	var current []clusterRow
	flush := func() {
		if len(current) >= 2 {
			clusters = append(clusters, current)
		}
		current = nil
	}
	for _, y := range ys {
		runs := rows[y]
		sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })
		if len(runs) < 2 {
			flush()
			continue
		}
		if len(current) > 0 && math.Abs(y-current[len(current)-1].y) >= mergeDist {
			flush()
		}
		current = append(current, clusterRow{y: y, runs: runs})
	}
	flush()

	var candidates []Candidate
	for _, cluster := range clusters {
		table, rowsBox := buildTable(cluster)
		if len(table.Rows) == 0 || len(table.Rows[0].Cells) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			OriginPage: page.Number,
			Index:      len(candidates) + 1,
			BBox:       bbox,
			RowsBBox:   rowsBox,
			Table:      table,
		})
	}
	return candidates, bbox, nil
}

func buildTable(cluster []clusterRow) (Table, Rect) {
	table := Table{Rows: make([]Row, 0, len(cluster))}
	box := EmptyRect
	for _, cr := range cluster {
		row := Row{}
		for _, run := range cr.runs {
			box = box.Union(Rect{MinX: run.X, MinY: cr.y - run.Height, MaxX: run.X + run.Width, MaxY: cr.y})
			text := strings.TrimSpace(run.Text)
			if text == "" {
				continue
			}
			row.Cells = append(row.Cells, Cell{Text: text})
		}
		table.Rows = append(table.Rows, row)
	}
	return table, box
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
