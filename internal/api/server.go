package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/config"
	"github.com/dgallion1/pdfchunk/internal/jobs"
	"github.com/dgallion1/pdfchunk/internal/metrics"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
)

// Chunker is the synchronous side of the pipeline used by the API.
type Chunker interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Analysis, error)
	TableInfo(ctx context.Context, data []byte) (map[int]int, error)
}

// Server is the HTTP API server for pdfchunk.
type Server struct {
	router       chi.Router
	chunker      Chunker
	orchestrator *jobs.Orchestrator // nil disables async ingest
	store        cache.Store        // nil disables caching
	metrics      *metrics.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(chunker Chunker, orch *jobs.Orchestrator, store cache.Store, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		chunker:      chunker,
		orchestrator: orch,
		store:        store,
		metrics:      m,
		log:          log.With("component", "api"),
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log, s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))

		r.Post("/api/chunks", s.handleChunks)
		r.Post("/api/tables", s.handleTables)

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/ingest/{jobID}/chunks", s.handleIngestChunks)

		r.Get("/api/documents/{key}", s.handleGetDocument)
		r.Delete("/api/documents/{key}", s.handleDeleteDocument)

		r.Get("/api/stats/chunking", s.handleChunkingStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
