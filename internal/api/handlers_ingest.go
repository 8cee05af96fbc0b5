package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/jobs"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "async ingest disabled", http.StatusServiceUnavailable)
		return
	}
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := jobs.NewJob(up.filename, up.data, up.extractTables, s.jobCacheKey(up.cacheKey))
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), submitStatus(err))
		return
	}
	writeJSON(w, http.StatusAccepted, ingestAccepted(job))
}

// handleBatchIngest queues every file in the "files" field. Per-file
// failures are reported inline.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "async ingest disabled", http.StatusServiceUnavailable)
		return
	}
	limit := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	extractTables, err := formBool(r, "extract_tables", s.cfg.Pipeline.ExtractTables)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{"filename": filename, "error": "failed to open file"})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		f.Close()
		if err != nil || int64(len(data)) > limit {
			results = append(results, map[string]any{"filename": filename, "error": "file too large or read error"})
			continue
		}

		job := jobs.NewJob(filename, data, extractTables, s.jobCacheKey(cache.ContentKey(data, extractTables)))
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"filename": filename, "job_id": job.ID, "error": err.Error()})
			continue
		}
		res := ingestAccepted(job)
		res["filename"] = filename
		results = append(results, res)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleIngestChunks(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	snap := job.Snapshot()
	switch {
	case !snap.Status.Terminal():
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job not finished",
			"status": snap.Status,
		})
	case snap.Status == jobs.StatusFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "job failed",
			"errors": snap.Progress.Errors,
		})
	default:
		chunks := job.Chunks()
		writeJSON(w, http.StatusOK, chunksResponse{
			CacheKey:      snap.CacheKey,
			CacheHit:      snap.Progress.CacheHit,
			TotalChunks:   len(chunks),
			DegradedPages: snap.Progress.DegradedPages,
			Chunks:        chunks,
		})
	}
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	if s.orchestrator == nil {
		jsonError(w, "async ingest disabled", http.StatusServiceUnavailable)
		return nil, false
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	return job, true
}

// jobCacheKey drops the key when there is no store to use it.
func (s *Server) jobCacheKey(key string) string {
	if s.orchestrator.Store() == nil {
		return ""
	}
	return key
}

func ingestAccepted(job *jobs.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":    snap.ID,
		"cache_key": snap.CacheKey,
		"status":    snap.Status,
		"poll_url":  fmt.Sprintf("/api/ingest/%s/status", snap.ID),
	}
}

func submitStatus(err error) int {
	if errors.Is(err, jobs.ErrQueueFull) || errors.Is(err, jobs.ErrStopped) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
