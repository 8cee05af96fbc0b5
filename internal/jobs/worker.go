package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/metrics"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
)

// Runner is the part of the pipeline a worker needs.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Analysis, error)
}

// Worker processes a single job at a time.
type Worker struct {
	runner  Runner
	store   cache.Store // may be nil
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewWorker(runner Runner, store cache.Store, m *metrics.Metrics, log *slog.Logger) *Worker {
	return &Worker{runner: runner, store: store, metrics: m, log: log}
}

var stageStatus = map[pipeline.Stage]JobStatus{
	pipeline.StageDecoding:    StatusDecoding,
	pipeline.StageDiscovery:   StatusDiscovery,
	pipeline.StageComposition: StatusComposition,
	pipeline.StageChunking:    StatusChunking,
}

// Process runs the pipeline for a job and stores the result.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "cache_key", job.CacheKey)
	defer func() {
		w.metrics.JobFinished(string(job.Snapshot().Status))
	}()

	// Phase 0: cache lookup.
	if w.store != nil && job.CacheKey != "" {
		chunks, ok, err := w.store.Get(ctx, job.CacheKey)
		switch {
		case err != nil:
			w.metrics.CacheResult("error")
			log.Warn("cache lookup failed, processing document", "error", err)
		case ok:
			w.metrics.CacheResult("hit")
			log.Info("served from cache", "chunks", len(chunks))
			job.SetResult(chunks, Progress{CacheHit: true})
			job.SetStatus(StatusCompleted, "cache")
			return
		default:
			w.metrics.CacheResult("miss")
		}
	}

	// Phase 1: pipeline.
	a, err := w.runner.Run(ctx, pipeline.Request{
		Data:          job.FileData(),
		ExtractTables: job.ExtractTables,
		Observer: func(s pipeline.Stage) {
			if st, ok := stageStatus[s]; ok {
				job.SetStatus(st, string(s))
			}
		},
	})
	if err != nil {
		log.Error("pipeline failed", "error", err)
		job.AddError(err.Error())
		job.releaseFileData()
		job.SetStatus(StatusFailed, job.Snapshot().Phase)
		return
	}

	p := Progress{TotalPages: len(a.Pages), Tables: a.Registry.Len()}
	for _, d := range a.Degraded() {
		p.DegradedPages = append(p.DegradedPages, d.PageNumber)
		job.AddError(d.Err.Error())
	}
	job.SetResult(a.Chunks, p)
	log.Info("document chunked", "pages", p.TotalPages, "chunks", len(a.Chunks), "degraded", len(p.DegradedPages))

	// Phase 2: store.
	if w.store == nil || job.CacheKey == "" {
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusStoring, "storing")
	if err := w.store.Put(ctx, job.CacheKey, a.Chunks); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store %s: %s", job.CacheKey, err))
		job.SetStatus(StatusPartial, "storing")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}
