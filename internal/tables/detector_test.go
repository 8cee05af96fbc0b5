package tables

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

func run(text string, x, y float64) doctree.TextRun {
	return doctree.TextRun{Text: text, X: x, Y: y, Width: 30, Height: 10}
}

func TestDetect_EmptyPage(t *testing.T) {
	cands, box, err := NewDetector().Detect(doctree.Page{Number: 1})
	require.NoError(t, err)
	assert.Empty(t, cands)
	assert.True(t, box.IsEmpty())
}

func TestDetect_TwoByThreeTable(t *testing.T) {
	page := doctree.Page{
		Number: 2,
		Runs: []doctree.TextRun{
			run("Name", 50, 700), run("Qty", 150, 700), run("Price", 250, 700),
			run("Apple", 50, 685), run("3", 150, 685), run("1.20", 250, 685),
		},
		ViewportHeight: 792,
	}
	cands, box, err := NewDetector().Detect(page)
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, 2, c.OriginPage)
	assert.Equal(t, 1, c.Index)
	assert.Equal(t, [][]string{{"Name", "Qty", "Price"}, {"Apple", "3", "1.20"}}, c.Table.Texts())
	assert.Equal(t, Rect{MinX: 50, MinY: 675, MaxX: 280, MaxY: 700}, box)
	assert.Equal(t, box, c.BBox)
}

func TestDetect_CellsSortedLeftToRight(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("c", 300, 500), run("a", 10, 500), run("b", 150, 500),
		run("f", 300, 490), run("d", 10, 490), run("e", 150, 490),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, cands[0].Table.Texts())
}

func TestDetect_SingleRowIsNotATable(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("left", 10, 500), run("right", 200, 500),
		run("a paragraph line", 10, 480),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDetect_SingleRunRowSplitsClusters(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("a", 10, 700), run("b", 100, 700),
		run("c", 10, 690), run("d", 100, 690),
		run("Paragraph between tables", 10, 680),
		run("e", 10, 670), run("f", 100, 670),
		run("g", 10, 660), run("h", 100, 660),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, cands[0].Table.Texts())
	assert.Equal(t, [][]string{{"e", "f"}, {"g", "h"}}, cands[1].Table.Texts())
	assert.Equal(t, 2, cands[1].Index)
}

func TestDetect_RowGapAtThresholdSplits(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("a", 10, 700), run("b", 100, 700),
		run("c", 10, 680), run("d", 100, 680), // exactly 20 below: new cluster
		run("e", 10, 661), run("f", 100, 661),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, [][]string{{"c", "d"}, {"e", "f"}}, cands[0].Table.Texts())
}

func TestDetect_EmptyCellsDroppedRowKept(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("h1", 10, 700), run("h2", 100, 700),
		run("  ", 10, 690), run(" ", 100, 690),
		run("x", 10, 680), run("y", 100, 680),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	rows := cands[0].Table.Rows
	require.Len(t, rows, 3)
	assert.Empty(t, rows[1].Cells)
}

func TestDetect_BlankHeaderDiscarded(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run(" ", 10, 700), run(" ", 100, 700),
		run("x", 10, 690), run("y", 100, 690),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDetect_AlignedSignatureBlockIsFalsePositive(t *testing.T) {
	// Two aligned columns of non-tabular text are indistinguishable from a
	// table for this heuristic.
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("Landlord:", 50, 200), run("Tenant:", 300, 200),
		run("Jane Roe", 50, 185), run("John Doe", 300, 185),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	assert.Len(t, cands, 1)
}

func TestDetect_SingleColumnTableIsMissed(t *testing.T) {
	page := doctree.Page{Number: 1, Runs: []doctree.TextRun{
		run("Item", 50, 700),
		run("Apple", 50, 685),
		run("Pear", 50, 670),
	}}
	cands, _, err := NewDetector().Detect(page)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestDetect_NonFiniteGeometry(t *testing.T) {
	page := doctree.Page{Number: 4, Runs: []doctree.TextRun{
		run("ok", 10, 700),
		{Text: "bad", X: math.NaN(), Y: 690},
	}}
	_, _, err := NewDetector().Detect(page)
	assert.Error(t, err)
}
