package layout

import (
	"math"
	"strings"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// DefaultLineBreakThreshold is the vertical jump, in user-space units,
// above which two consecutive runs are placed on separate lines.
const DefaultLineBreakThreshold = 5.0

// Linearize joins a page's runs into one string in decoder order, starting a
// new line whenever the rounded vertical position moves by more than
// threshold. A zero threshold breaks on any vertical move; a negative one
// falls back to DefaultLineBreakThreshold. Run text is appended verbatim.
func Linearize(runs []doctree.TextRun, threshold float64) string {
	if len(runs) == 0 {
		return ""
	}
	if threshold < 0 {
		threshold = DefaultLineBreakThreshold
	}

	var sb strings.Builder
	var lastY float64
	for i, run := range runs {
		y := math.Round(run.Y)
		if i > 0 && math.Abs(y-lastY) > threshold {
			sb.WriteString("\n")
		}
		sb.WriteString(run.Text)
		lastY = y
	}
	return strings.TrimSpace(sb.String())
}
