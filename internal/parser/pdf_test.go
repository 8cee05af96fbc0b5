package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pdfchunk/internal/errs"
)

type textOp struct {
	x, y float64
	s    string
}

// buildPDF writes a minimal PDF with one Helvetica font and one content
// stream per page. The MediaBox sits on the Pages node so pages inherit it.
func buildPDF(pages [][]textOp) []byte {
	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}

	catalog := add("") // filled once the page tree exists
	pagesObj := add("")
	widths := strings.TrimSpace(strings.Repeat("600 ", 95))
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>")

	var kids []string
	for _, ops := range pages {
		var content strings.Builder
		for _, op := range ops {
			fmt.Fprintf(&content, "BT /F1 12 Tf %g %g Td (%s) Tj ET\n", op.x, op.y, op.s)
		}
		stream := add(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", pagesObj, font, stream))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objs[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objs[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, catalog, xref)
	return buf.Bytes()
}

func testDecoder() *PDFDecoder {
	d := NewPDFDecoder(nil)
	d.Preflight = false
	return d
}

func TestPDFDecoder_EmptyInput(t *testing.T) {
	_, err := testDecoder().Decode(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errs.IsSource(err))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestPDFDecoder_NotAPDF(t *testing.T) {
	_, err := testDecoder().Decode(context.Background(), []byte("just some plain text, not a document"))
	require.Error(t, err)
	assert.True(t, errs.IsDecode(err))
}

func TestPDFDecoder_TruncatedPDF(t *testing.T) {
	data := buildPDF([][]textOp{{{72, 700, "Hello"}}})
	_, err := testDecoder().Decode(context.Background(), data[:40])
	require.Error(t, err)
	assert.True(t, errs.IsDecode(err), "got %v", err)
}

func TestPDFDecoder_ExtractsRunsPerPage(t *testing.T) {
	data := buildPDF([][]textOp{
		{{72, 700, "Hello"}, {300, 700, "World"}},
		{{72, 500, "Second"}},
		{},
	})
	doc, err := testDecoder().Decode(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)

	p1 := doc.Pages[0]
	assert.Equal(t, 1, p1.Number)
	assert.InDelta(t, 792, p1.ViewportHeight, 0.001)
	require.Len(t, p1.Runs, 2)
	assert.Equal(t, "Hello", p1.Runs[0].Text)
	assert.Equal(t, "World", p1.Runs[1].Text)
	assert.InDelta(t, 72, p1.Runs[0].X, 0.5)
	assert.InDelta(t, 700, p1.Runs[0].Y, 0.5)
	assert.Greater(t, p1.Runs[0].Width, 0.0)

	require.Len(t, doc.Pages[1].Runs, 1)
	assert.Equal(t, "Second", doc.Pages[1].Runs[0].Text)

	assert.Equal(t, 3, doc.Pages[2].Number)
	assert.Empty(t, doc.Pages[2].Runs)
}

func TestPDFDecoder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testDecoder().Decode(ctx, buildPDF([][]textOp{{{72, 700, "x"}}}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSniff(t *testing.T) {
	mt, ok := Sniff(buildPDF([][]textOp{{}}))
	assert.True(t, ok)
	assert.Equal(t, "application/pdf", mt)

	_, ok = Sniff([]byte("<html><body>hi</body></html>"))
	assert.False(t, ok)
}
