// Package jobs runs uploaded documents through the chunking pipeline in the
// background and tracks their progress.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/pdfchunk/internal/doctree"
)

// JobStatus represents the state of an ingest job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusDecoding    JobStatus = "decoding"
	StatusDiscovery   JobStatus = "discovery"
	StatusComposition JobStatus = "composition"
	StatusChunking    JobStatus = "chunking"
	StatusStoring     JobStatus = "storing"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial" // chunks available, store write failed
	StatusFailed      JobStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks the state of a single document.
type Job struct {
	mu sync.Mutex

	ID            string `json:"job_id"`
	Filename      string `json:"filename"`
	CacheKey      string `json:"cache_key"`
	ExtractTables bool   `json:"extract_tables"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	chunks   []doctree.Chunk
	errors   []string
}

// Progress summarizes what the pipeline produced.
type Progress struct {
	TotalPages    int      `json:"total_pages"`
	TotalChunks   int      `json:"total_chunks"`
	Tables        int      `json:"tables"`
	DegradedPages []int    `json:"degraded_pages"`
	CacheHit      bool     `json:"cache_hit"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job owning data.
func NewJob(filename string, data []byte, extractTables bool, cacheKey string) *Job {
	now := time.Now()
	return &Job{
		ID:            uuid.NewString(),
		Filename:      filename,
		CacheKey:      cacheKey,
		ExtractTables: extractTables,
		Status:        StatusQueued,
		Phase:         "queued",
		CreatedAt:     now,
		UpdatedAt:     now,
		fileData:      data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.lastUpdate()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) lastUpdate() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetResult stores the produced chunks and releases the upload.
func (j *Job) SetResult(chunks []doctree.Chunk, p Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.chunks = chunks
	j.fileData = nil
	j.Progress.TotalPages = p.TotalPages
	j.Progress.TotalChunks = len(chunks)
	j.Progress.Tables = p.Tables
	j.Progress.DegradedPages = p.DegradedPages
	j.Progress.CacheHit = p.CacheHit
	j.UpdatedAt = time.Now()
}

// Chunks returns the produced chunks, or nil before completion.
func (j *Job) Chunks() []doctree.Chunk {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chunks
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	Filename      string    `json:"filename"`
	CacheKey      string    `json:"cache_key"`
	ExtractTables bool      `json:"extract_tables"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	Progress      Progress  `json:"progress"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	degraded := append([]int{}, j.Progress.DegradedPages...)
	p := j.Progress
	p.Errors = errs
	p.DegradedPages = degraded
	return JobSnapshot{
		ID:            j.ID,
		Filename:      j.Filename,
		CacheKey:      j.CacheKey,
		ExtractTables: j.ExtractTables,
		Status:        j.Status,
		Phase:         j.Phase,
		Progress:      p,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}
