// Package compose merges a page's linear text with its resolved tables.
package compose

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
	"github.com/dgallion1/pdfchunk/internal/layout"
	"github.com/dgallion1/pdfchunk/internal/tables"
)

// Composer builds the final text of a page.
type Composer struct {
	LineBreakThreshold float64

	log    *slog.Logger
	render func(tables.Table, int) string
}

// NewComposer returns a Composer that renders tables with Render.
func NewComposer(lineBreakThreshold float64, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{
		LineBreakThreshold: lineBreakThreshold,
		log:                log.With("component", "composer"),
		render:             tables.Render,
	}
}

// Compose returns the page's linear text followed by a block for every
// table the registry renders on this page, in detection order.
// Continuations are skipped without a placeholder. If rendering fails the
// page falls back to its linear text and the failure is returned as a
// PageAnalysisError next to the usable PageText.
func (c *Composer) Compose(page doctree.Page, reg *tables.Registry) (pt doctree.PageText, err error) {
	linear := layout.Linearize(page.Runs, c.LineBreakThreshold)
	pt = doctree.PageText{PageNumber: page.Number, Text: linear}
	if reg == nil {
		return pt, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &errs.PageAnalysisError{Page: page.Number, Stage: "compose", Err: fmt.Errorf("panic: %v", r)}
			c.log.Warn("table rendering failed, using linear text", "page", page.Number, "error", err)
			pt = doctree.PageText{PageNumber: page.Number, Text: linear}
		}
	}()

	var sb strings.Builder
	sb.WriteString(linear)
	for _, rec := range reg.ForPage(page.Number) {
		if !rec.Rendered() {
			c.log.Debug("skipping table continuation", "page", page.Number, "table_id", rec.ID, "continuation_of", rec.ContinuationOf)
			continue
		}
		if len(rec.Table.Rows) == 0 {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(c.render(rec.Table, rec.Index))
		sb.WriteString("\n")
	}
	pt.Text = sb.String()
	return pt, nil
}
