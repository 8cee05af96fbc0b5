package parser

import (
	"math"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// RunOptions controls how single glyphs are merged into text runs.
type RunOptions struct {
	// BaselineTolerance is the largest Y difference, in points, between
	// glyphs of the same run.
	BaselineTolerance float64
	// SpaceRatio is the horizontal gap, as a fraction of font size, at which
	// a space is inserted between adjacent glyphs.
	SpaceRatio float64
	// BreakRatio is the gap, as a fraction of font size, that ends a run.
	BreakRatio float64
}

func DefaultRunOptions() RunOptions {
	return RunOptions{
		BaselineTolerance: 0.5,
		SpaceRatio:        0.3,
		BreakRatio:        1.0,
	}
}

// CoalesceGlyphs merges glyphs in content-stream order into runs. A run
// ends when the baseline moves, the pen jumps backwards, or the gap to the
// next glyph reaches BreakRatio × font size. Whitespace-only runs are
// dropped.
func CoalesceGlyphs(glyphs []pdflib.Text, opts RunOptions) []doctree.TextRun {
	var (
		runs []doctree.TextRun
		cur  *doctree.TextRun
		sb   strings.Builder
		size float64
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = sb.String()
		if strings.TrimSpace(cur.Text) != "" {
			runs = append(runs, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, g := range glyphs {
		if g.S == "" || math.IsNaN(g.X) || math.IsNaN(g.Y) {
			continue
		}
		fs := g.FontSize
		if fs <= 0 {
			fs = 1
		}
		if cur != nil {
			end := cur.X + cur.Width
			gap := g.X - end
			switch {
			case math.Abs(g.Y-cur.Y) > opts.BaselineTolerance,
				gap >= opts.BreakRatio*math.Max(fs, size),
				gap < -math.Max(fs, size):
				flush()
			case gap >= opts.SpaceRatio*math.Max(fs, size) && !strings.HasSuffix(sb.String(), " ") && g.S != " ":
				sb.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &doctree.TextRun{X: g.X, Y: g.Y, Height: fs}
			size = fs
		}
		sb.WriteString(g.S)
		if right := g.X + g.W; right > cur.X+cur.Width {
			cur.Width = right - cur.X
		}
		if fs > cur.Height {
			cur.Height = fs
		}
	}
	flush()
	return runs
}
