package parser

import (
	"testing"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyphs(x, y, size float64, s string) []pdflib.Text {
	var out []pdflib.Text
	w := size * 0.5
	for _, r := range s {
		out = append(out, pdflib.Text{FontSize: size, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func TestCoalesceGlyphs_MergesWord(t *testing.T) {
	runs := CoalesceGlyphs(glyphs(10, 100, 10, "Total"), DefaultRunOptions())
	require.Len(t, runs, 1)
	assert.Equal(t, "Total", runs[0].Text)
	assert.Equal(t, 10.0, runs[0].X)
	assert.Equal(t, 25.0, runs[0].Width)
	assert.Equal(t, 10.0, runs[0].Height)
}

func TestCoalesceGlyphs_SmallGapInsertsSpace(t *testing.T) {
	in := append(glyphs(10, 100, 10, "net"), glyphs(29, 100, 10, "pay")...) // gap of 4
	runs := CoalesceGlyphs(in, DefaultRunOptions())
	require.Len(t, runs, 1)
	assert.Equal(t, "net pay", runs[0].Text)
}

func TestCoalesceGlyphs_WideGapSplitsColumns(t *testing.T) {
	in := append(glyphs(10, 100, 10, "Name"), glyphs(150, 100, 10, "Qty")...)
	runs := CoalesceGlyphs(in, DefaultRunOptions())
	require.Len(t, runs, 2)
	assert.Equal(t, "Name", runs[0].Text)
	assert.Equal(t, "Qty", runs[1].Text)
	assert.Equal(t, 150.0, runs[1].X)
}

func TestCoalesceGlyphs_BaselineChangeSplits(t *testing.T) {
	in := append(glyphs(10, 100, 10, "one"), glyphs(25, 88, 10, "two")...)
	runs := CoalesceGlyphs(in, DefaultRunOptions())
	require.Len(t, runs, 2)
	assert.Equal(t, 88.0, runs[1].Y)
}

func TestCoalesceGlyphs_DropsWhitespaceRuns(t *testing.T) {
	in := append(glyphs(10, 100, 10, "   "), glyphs(200, 100, 10, "x")...)
	runs := CoalesceGlyphs(in, DefaultRunOptions())
	require.Len(t, runs, 1)
	assert.Equal(t, "x", runs[0].Text)
}
