package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
)

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("a.pdf", []byte("x"), true, "")

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusDecoding, "decoding"},
		{StatusDiscovery, "discovery"},
		{StatusComposition, "composition"},
		{StatusChunking, "chunking"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
	if !job.Status.Terminal() {
		t.Error("completed should be terminal")
	}
}

func TestNewJob_UniqueIDs(t *testing.T) {
	a := NewJob("a.pdf", nil, true, "")
	b := NewJob("a.pdf", nil, true, "")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("expected queued, got %q", a.Status)
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob("e.pdf", nil, true, "")
	job.AddError("page 3 failed")
	job.AddError("page 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "page 3 failed" {
		t.Errorf("expected first error %q, got %q", "page 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_SetResultReleasesUpload(t *testing.T) {
	job := NewJob("r.pdf", []byte("payload"), true, "")
	job.SetResult([]doctree.Chunk{{ChunkID: 1}, {ChunkID: 2}}, Progress{TotalPages: 2, Tables: 1, DegradedPages: []int{2}})

	if job.FileData() != nil {
		t.Error("expected upload bytes to be released")
	}
	snap := job.Snapshot()
	if snap.Progress.TotalChunks != 2 || snap.Progress.TotalPages != 2 || snap.Progress.Tables != 1 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if len(job.Chunks()) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(job.Chunks()))
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	snap := NewJob("s.pdf", nil, true, "").Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.DegradedPages == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("a.pdf", nil, true, "")
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob("old.pdf", nil, true, "")
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := NewJob("new.pdf", nil, true, "")
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

// fakeRunner returns a fixed analysis after walking through the stages.
type fakeRunner struct {
	analysis *pipeline.Analysis
	err      error
	calls    int
}

func (f *fakeRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Analysis, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, s := range []pipeline.Stage{pipeline.StageDecoding, pipeline.StageChunking, pipeline.StageDone} {
		if req.Observer != nil {
			req.Observer(s)
		}
	}
	return f.analysis, f.err
}

func twoPageAnalysis() *pipeline.Analysis {
	return &pipeline.Analysis{
		Pages: []pipeline.PageResult{
			{PageNumber: 1, Text: "one"},
			{PageNumber: 2, Text: "two", Err: &errs.PageAnalysisError{Page: 2, Stage: "discovery", Err: errors.New("bad geometry")}},
		},
		Chunks: []doctree.Chunk{{PageNumber: 1, ChunkID: 1}, {PageNumber: 2, ChunkID: 2}},
	}
}

func TestWorker_ProcessStoresChunks(t *testing.T) {
	store := cache.NewMemoryStore()
	w := NewWorker(&fakeRunner{analysis: twoPageAnalysis()}, store, nil, testLogger())
	job := NewJob("doc.pdf", []byte("%PDF"), true, "doc-key")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalChunks != 2 || len(snap.Progress.DegradedPages) != 1 || snap.Progress.DegradedPages[0] != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if _, ok, _ := store.Get(context.Background(), "doc-key"); !ok {
		t.Error("expected chunks to be stored")
	}
}

func TestWorker_CacheHitSkipsPipeline(t *testing.T) {
	store := cache.NewMemoryStore()
	if err := store.Put(context.Background(), "k", []doctree.Chunk{{ChunkID: 1}}); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{analysis: twoPageAnalysis()}
	job := NewJob("doc.pdf", []byte("%PDF"), true, "k")

	NewWorker(runner, store, nil, testLogger()).Process(context.Background(), job)

	if runner.calls != 0 {
		t.Errorf("expected no pipeline run on cache hit, got %d", runner.calls)
	}
	snap := job.Snapshot()
	if snap.Status != StatusCompleted || !snap.Progress.CacheHit {
		t.Errorf("expected completed cache hit, got %+v", snap)
	}
}

func TestWorker_PipelineFailure(t *testing.T) {
	runner := &fakeRunner{err: &errs.DecodeError{Reason: "open", Err: errors.New("no xref")}}
	job := NewJob("bad.pdf", []byte("%PDF"), true, "")

	NewWorker(runner, nil, nil, testLogger()).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected one error, got %v", snap.Progress.Errors)
	}
	if job.FileData() != nil {
		t.Error("expected upload to be released on failure")
	}
}

type failingStore struct{ *cache.MemoryStore }

func (failingStore) Put(context.Context, string, []doctree.Chunk) error {
	return errors.New("disk full")
}

func TestWorker_StoreFailureIsPartial(t *testing.T) {
	job := NewJob("doc.pdf", []byte("%PDF"), true, "k")
	NewWorker(&fakeRunner{analysis: twoPageAnalysis()}, failingStore{cache.NewMemoryStore()}, nil, testLogger()).Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusPartial {
		t.Errorf("expected partial, got %q", got)
	}
	if len(job.Chunks()) != 2 {
		t.Error("chunks should remain available after a store failure")
	}
}

func TestOrchestrator_RunsSubmittedJobs(t *testing.T) {
	o := NewOrchestrator(Options{Workers: 2, QueueSize: 4, JobTTL: time.Hour}, &fakeRunner{analysis: twoPageAnalysis()}, nil, nil, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("doc.pdf", []byte("%PDF"), true, "")
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !job.Snapshot().Status.Terminal() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %q", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be registered")
	}
	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Errorf("expected completed, got %q", got)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started: nothing drains the queue.
	o := NewOrchestrator(Options{Workers: 1, QueueSize: 1, JobTTL: time.Hour}, &fakeRunner{}, nil, nil, testLogger())

	if err := o.Submit(NewJob("a.pdf", nil, true, "")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob("b.pdf", nil, true, "")
	err := o.Submit(second)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if second.Snapshot().Status != StatusFailed {
		t.Error("rejected job should be marked failed")
	}
	if o.GetJob(second.ID) == nil {
		t.Error("rejected job should stay visible")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(Options{Workers: 1, QueueSize: 1}, &fakeRunner{}, nil, nil, testLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	if err := o.Submit(NewJob("late.pdf", nil, true, "")); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}
