package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/pdfchunk/internal/cache"
)

// handleGetDocument returns a cached chunk list.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	key, ok := s.documentKey(w, r)
	if !ok {
		return
	}
	chunks, hit, err := s.store.Get(r.Context(), key)
	if err != nil {
		s.log.Error("cache get failed", "cache_key", key, "error", err)
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !hit {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, chunksResponse{
		CacheKey:      key,
		CacheHit:      true,
		TotalChunks:   len(chunks),
		DegradedPages: []int{},
		Chunks:        chunks,
	})
}

// handleDeleteDocument removes a cached chunk list. Deleting a missing key
// succeeds.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	key, ok := s.documentKey(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), key); err != nil {
		s.log.Error("cache delete failed", "cache_key", key, "error", err)
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": key})
}

func (s *Server) documentKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.store == nil {
		jsonError(w, "cache disabled", http.StatusServiceUnavailable)
		return "", false
	}
	key := chi.URLParam(r, "key")
	if err := cache.ValidateKey(key); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return key, true
}
