// Package pipeline runs a document through decoding, table discovery, page
// composition and chunk building.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/pdfchunk/internal/chunker"
	"github.com/dgallion1/pdfchunk/internal/compose"
	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
	"github.com/dgallion1/pdfchunk/internal/layout"
	"github.com/dgallion1/pdfchunk/internal/metrics"
	"github.com/dgallion1/pdfchunk/internal/parser"
	"github.com/dgallion1/pdfchunk/internal/tables"
)

// Stage names a step of a pipeline run.
type Stage string

const (
	StageDecoding    Stage = "decoding"
	StageDiscovery   Stage = "discovery"
	StageComposition Stage = "composition"
	StageChunking    Stage = "chunking"
	StageDone        Stage = "done"
)

// Observer is notified when a run enters a stage. It is called from the
// goroutine running the pipeline.
type Observer func(Stage)

// Options are the tunables of a Chunker.
type Options struct {
	OverlapFraction    float64 `validate:"gte=0,lte=1"`
	Workers            int     `validate:"gte=0"` // 0 means GOMAXPROCS
	LineBreakThreshold float64 `validate:"gte=0"`
	RowMergeDistance   float64 `validate:"gt=0"`
	MultiPageRatio     float64 `validate:"gt=0,lte=1"`
}

// DefaultOptions returns the documented defaults of every tunable.
func DefaultOptions() Options {
	return Options{
		OverlapFraction:    chunker.DefaultOverlapFraction,
		LineBreakThreshold: layout.DefaultLineBreakThreshold,
		RowMergeDistance:   tables.DefaultRowMergeDistance,
		MultiPageRatio:     tables.DefaultMultiPageRatio,
	}
}

var validate = validator.New()

// Validate reports the first invalid option as a ConfigurationError.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &errs.ConfigurationError{
				Field:  fe.Field(),
				Reason: fmt.Sprintf("must satisfy %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value()),
			}
		}
		return &errs.ConfigurationError{Field: "options", Reason: err.Error()}
	}
	return nil
}

// Chunker turns document bytes into overlapping, table-aware page chunks.
// The decoder is injected and owned by the caller. A Chunker holds no
// per-document state, so concurrent calls are independent.
type Chunker struct {
	decoder  parser.Decoder
	opts     Options
	detector *tables.Detector
	composer *compose.Composer
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New validates opts and builds a Chunker. m may be nil.
func New(decoder parser.Decoder, opts Options, log *slog.Logger, m *metrics.Metrics) (*Chunker, error) {
	if decoder == nil {
		return nil, &errs.ConfigurationError{Field: "decoder", Reason: "required"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Chunker{
		decoder:  decoder,
		opts:     opts,
		detector: &tables.Detector{RowMergeDistance: opts.RowMergeDistance},
		composer: compose.NewComposer(opts.LineBreakThreshold, log),
		metrics:  m,
		log:      log.With("component", "chunker"),
	}, nil
}

// Options returns the validated options.
func (c *Chunker) Options() Options { return c.opts }

// PageResult is the composition outcome of one page.
type PageResult struct {
	PageNumber int
	Text       string
	Tables     []*tables.Record // records registered on this page
	Err        error            // PageAnalysisError when the page fell back to linear text
}

// Analysis is the full result of a run.
type Analysis struct {
	Pages    []PageResult
	Registry *tables.Registry
	Chunks   []doctree.Chunk
}

// Degraded returns the pages that fell back to linear text.
func (a *Analysis) Degraded() []PageResult {
	var out []PageResult
	for _, p := range a.Pages {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Request describes a single run.
type Request struct {
	Data          []byte
	ExtractTables bool
	Observer      Observer
}

// Process returns one chunk per page. Decoding failures are fatal; page
// level failures degrade that page to its linear text.
func (c *Chunker) Process(ctx context.Context, data []byte, extractTables bool) ([]doctree.Chunk, error) {
	a, err := c.Run(ctx, Request{Data: data, ExtractTables: extractTables})
	if err != nil {
		return nil, err
	}
	return a.Chunks, nil
}

// ProcessFile reads path and processes its contents.
func (c *Chunker) ProcessFile(ctx context.Context, path string, extractTables bool) ([]doctree.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.SourceError{Op: "open " + path, Err: err}
	}
	return c.Process(ctx, data, extractTables)
}

// Analyze runs the pipeline with table extraction and returns per-page
// results together with the registry.
func (c *Chunker) Analyze(ctx context.Context, data []byte) (*Analysis, error) {
	return c.Run(ctx, Request{Data: data, ExtractTables: true})
}

// TableInfo reports how many table candidates each page holds. Pages whose
// detection failed report zero.
func (c *Chunker) TableInfo(ctx context.Context, data []byte) (map[int]int, error) {
	doc, err := c.decode(ctx, data)
	if err != nil {
		return nil, err
	}
	found, _, err := c.discover(ctx, doc.Pages)
	if err != nil {
		return nil, err
	}
	info := make(map[int]int, len(found))
	for _, pc := range found {
		info[pc.Page] = len(pc.Candidates)
	}
	return info, nil
}

// Run executes every stage for one document.
func (c *Chunker) Run(ctx context.Context, req Request) (a *Analysis, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveDocument(resultLabel(err), time.Since(start))
	}()
	notify := func(s Stage) {
		if req.Observer != nil {
			req.Observer(s)
		}
	}

	notify(StageDecoding)
	t := time.Now()
	doc, err := c.decode(ctx, req.Data)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveStage(string(StageDecoding), time.Since(t))
	c.metrics.AddPages(len(doc.Pages))

	var (
		reg      *tables.Registry
		discover = make([]error, len(doc.Pages))
	)
	if req.ExtractTables {
		notify(StageDiscovery)
		t = time.Now()
		found, failures, err := c.discover(ctx, doc.Pages)
		if err != nil {
			return nil, err
		}
		discover = failures
		reg = tables.BuildRegistry(found, c.opts.MultiPageRatio)
		for status, n := range reg.Counts() {
			c.metrics.AddTables(string(status), n)
		}
		c.metrics.ObserveStage(string(StageDiscovery), time.Since(t))
	}

	notify(StageComposition)
	t = time.Now()
	pages, err := c.composeAll(ctx, doc.Pages, reg)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].Err == nil && discover[i] != nil {
			pages[i].Err = discover[i]
		}
		if pages[i].Err != nil {
			c.metrics.PageDegraded(stageOf(pages[i].Err))
		}
	}
	c.metrics.ObserveStage(string(StageComposition), time.Since(t))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notify(StageChunking)
	texts := make([]doctree.PageText, len(pages))
	for i, p := range pages {
		texts[i] = doctree.PageText{PageNumber: p.PageNumber, Text: p.Text}
	}
	chunks := chunker.Build(texts, c.opts.OverlapFraction)
	c.metrics.AddChunks(len(chunks))

	notify(StageDone)
	c.log.Info("document chunked",
		"pages", len(doc.Pages),
		"chunks", len(chunks),
		"tables", reg.Len(),
		"extract_tables", req.ExtractTables,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Analysis{Pages: pages, Registry: reg, Chunks: chunks}, nil
}

func (c *Chunker) decode(ctx context.Context, data []byte) (*doctree.Document, error) {
	if len(data) == 0 {
		return nil, &errs.SourceError{Op: "read", Err: parser.ErrEmptyInput}
	}
	doc, err := c.decoder.Decode(ctx, data)
	if err != nil {
		if errs.IsSource(err) || errs.IsDecode(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, &errs.DecodeError{Err: err}
	}
	if doc == nil {
		return nil, &errs.DecodeError{Reason: "decoder returned no document"}
	}
	return doc, nil
}

// discover runs detection on every page in parallel. A page whose detection
// fails is marked Failed and its PageAnalysisError is returned at the
// page's index; only cancellation aborts the pass.
func (c *Chunker) discover(ctx context.Context, pages []doctree.Page) ([]tables.PageCandidates, []error, error) {
	found := make([]tables.PageCandidates, len(pages))
	failures := make([]error, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[i], failures[i] = c.detectPage(pages[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return found, failures, nil
}

func (c *Chunker) detectPage(page doctree.Page) (pc tables.PageCandidates, err error) {
	pc = tables.PageCandidates{Page: page.Number, ViewportHeight: page.ViewportHeight}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &errs.PageAnalysisError{Page: page.Number, Stage: string(StageDiscovery), Err: err}
			c.log.Warn("table detection failed, page falls back to linear text", "page", page.Number, "error", err)
			pc = tables.PageCandidates{Page: page.Number, ViewportHeight: page.ViewportHeight, Failed: true}
		}
	}()
	cands, box, err := c.detector.Detect(page)
	if err != nil {
		return pc, err
	}
	if box.IsEmpty() {
		c.log.Debug("page has no text content", "page", page.Number)
	}
	pc.Candidates = cands
	return pc, nil
}

func (c *Chunker) composeAll(ctx context.Context, pages []doctree.Page, reg *tables.Registry) ([]PageResult, error) {
	out := make([]PageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pt, err := c.composer.Compose(pages[i], reg)
			out[i] = PageResult{
				PageNumber: pt.PageNumber,
				Text:       pt.Text,
				Tables:     reg.ForPage(pages[i].Number),
				Err:        err,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Chunker) workers() int {
	if c.opts.Workers > 0 {
		return c.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func stageOf(err error) string {
	var pe *errs.PageAnalysisError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return "unknown"
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errs.IsSource(err):
		return metrics.ResultSourceError
	case errs.IsDecode(err):
		return metrics.ResultDecodeError
	case errs.IsConfiguration(err):
		return metrics.ResultConfigError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	default:
		return metrics.ResultError
	}
}
