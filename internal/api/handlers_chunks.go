package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
)

type chunksResponse struct {
	CacheKey      string          `json:"cache_key,omitempty"`
	CacheHit      bool            `json:"cache_hit"`
	TotalChunks   int             `json:"total_chunks"`
	DegradedPages []int           `json:"degraded_pages"`
	Chunks        []doctree.Chunk `json:"chunks"`
}

// upload is a parsed single-file multipart request.
type upload struct {
	filename      string
	data          []byte
	extractTables bool
	cacheKey      string
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.RequestTimeout)
	defer cancel()

	if s.store != nil {
		chunks, hit, err := s.store.Get(ctx, up.cacheKey)
		switch {
		case err != nil:
			s.metrics.CacheResult("error")
			s.log.Warn("cache lookup failed", "cache_key", up.cacheKey, "error", err)
		case hit:
			s.metrics.CacheResult("hit")
			writeJSON(w, http.StatusOK, chunksResponse{
				CacheKey:      up.cacheKey,
				CacheHit:      true,
				TotalChunks:   len(chunks),
				DegradedPages: []int{},
				Chunks:        chunks,
			})
			return
		default:
			s.metrics.CacheResult("miss")
		}
	}

	a, err := s.chunker.Run(ctx, pipeline.Request{Data: up.data, ExtractTables: up.extractTables})
	if err != nil {
		s.log.Warn("chunking failed", "filename", up.filename, "error", err)
		writeError(w, err)
		return
	}

	resp := chunksResponse{
		TotalChunks:   len(a.Chunks),
		DegradedPages: []int{},
		Chunks:        a.Chunks,
	}
	for _, d := range a.Degraded() {
		resp.DegradedPages = append(resp.DegradedPages, d.PageNumber)
	}
	if s.store != nil {
		resp.CacheKey = up.cacheKey
		if err := s.store.Put(ctx, up.cacheKey, a.Chunks); err != nil {
			s.log.Error("cache store failed", "cache_key", up.cacheKey, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.RequestTimeout)
	defer cancel()

	info, err := s.chunker.TableInfo(ctx, up.data)
	if err != nil {
		writeError(w, err)
		return
	}
	pages := make(map[string]int, len(info))
	total := 0
	for page, n := range info {
		pages[strconv.Itoa(page)] = n
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":        pages,
		"total_tables": total,
	})
}

// readUpload parses the multipart form and writes an error response when it
// returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	limit := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", limit), http.StatusRequestEntityTooLarge)
			return upload{}, false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > limit {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", limit), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}

	extractTables, err := formBool(r, "extract_tables", s.cfg.Pipeline.ExtractTables)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	key := r.FormValue("cache_key")
	if key == "" {
		key = cache.ContentKey(data, extractTables)
	} else if err := cache.ValidateKey(key); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	return upload{
		filename:      sanitizeFilename(header.Filename),
		data:          data,
		extractTables: extractTables,
		cacheKey:      key,
	}, true
}

func formBool(r *http.Request, name string, def bool) (bool, error) {
	v := r.FormValue(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errs.IsConfiguration(err), errs.IsSource(err), errors.Is(err, cache.ErrInvalidKey):
		return http.StatusBadRequest
	case errs.IsDecode(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
