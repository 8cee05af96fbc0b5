package parser

import (
	"context"
	"errors"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
)

// Decoder converts raw document bytes into positioned text runs per page.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*doctree.Document, error)
}

// ErrEmptyInput is wrapped in a SourceError when the caller hands over no bytes.
var ErrEmptyInput = errors.New("empty input")

// Sniff reports the detected MIME type of data and whether it is a PDF.
func Sniff(data []byte) (string, bool) {
	m := mimetype.Detect(data)
	return m.String(), m.Is("application/pdf")
}

// checkInput rejects empty and non-PDF payloads before any decoding work.
func checkInput(data []byte) error {
	if len(data) == 0 {
		return &errs.SourceError{Op: "read", Err: ErrEmptyInput}
	}
	if mt, ok := Sniff(data); !ok {
		return &errs.DecodeError{Reason: "unsupported content type " + mt}
	}
	return nil
}
