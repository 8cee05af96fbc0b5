package api

import (
	"net/http"
)

func (s *Server) handleChunkingStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		jsonError(w, "chunking stats unavailable", http.StatusServiceUnavailable)
		return
	}
	depth := 0
	if s.orchestrator != nil {
		depth = s.orchestrator.QueueDepth()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"latency":     s.metrics.LatencySnapshot(),
		"queue_depth": depth,
		"cache":       s.store != nil,
	})
}
