package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
)

// DefaultViewportHeight is used when a page carries no usable MediaBox
// (US Letter, in points).
const DefaultViewportHeight = 792.0

func init() {
	// pdfcpu otherwise creates a config directory under the user's home.
	api.DisableConfigDir()
}

// PDFDecoder extracts positioned text runs from PDF bytes.
type PDFDecoder struct {
	// Preflight validates the file structure with pdfcpu before extraction
	// so that malformed input fails as a DecodeError with a precise reason.
	Preflight bool
	Runs      RunOptions

	log *slog.Logger
}

func NewPDFDecoder(log *slog.Logger) *PDFDecoder {
	if log == nil {
		log = slog.Default()
	}
	return &PDFDecoder{
		Preflight: true,
		Runs:      DefaultRunOptions(),
		log:       log.With("component", "pdf_decoder"),
	}
}

func (d *PDFDecoder) Decode(ctx context.Context, data []byte) (doc *doctree.Document, err error) {
	if err := checkInput(data); err != nil {
		return nil, err
	}

	if d.Preflight {
		n, err := preflight(data)
		if err != nil {
			return nil, &errs.DecodeError{Reason: "preflight", Err: err}
		}
		d.log.Debug("preflight ok", "pages", n)
	}

	// The extraction library panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &errs.DecodeError{Reason: "extract", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &errs.DecodeError{Reason: "open", Err: err}
	}

	numPages := reader.NumPage()
	doc = &doctree.Document{Pages: make([]doctree.Page, 0, numPages)}
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		out := doctree.Page{Number: i, ViewportHeight: DefaultViewportHeight}
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, out)
			continue
		}
		out.ViewportHeight = viewportHeight(page.V)
		if !page.V.Key("Contents").IsNull() {
			out.Runs = CoalesceGlyphs(page.Content().Text, d.Runs)
		}
		doc.Pages = append(doc.Pages, out)
	}
	d.log.Debug("decoded pdf", "pages", len(doc.Pages), "bytes", len(data))
	return doc, nil
}

func preflight(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}

// viewportHeight reads the page's MediaBox, following the Parent chain for
// inherited values.
func viewportHeight(v pdflib.Value) float64 {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdflib.Array && box.Len() == 4 {
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if h < 0 {
				h = -h
			}
			if h > 0 {
				return h
			}
		}
		v = v.Key("Parent")
	}
	return DefaultViewportHeight
}
