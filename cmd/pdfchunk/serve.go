package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfchunk/internal/api"
	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/jobs"
	"github.com/dgallion1/pdfchunk/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pdfchunk HTTP server",
	Long: `Start the pdfchunk HTTP API.

The server provides:
  - /health               - liveness check
  - /metrics              - prometheus metrics
  - /api/chunks           - synchronous chunking with cache lookup
  - /api/tables           - per-page table counts
  - /api/ingest           - background chunking jobs
  - /api/documents/{key}  - cached chunk lists

Examples:
  pdfchunk serve
  pdfchunk serve --port 3000
  PDFCHUNK_CACHE_BACKEND=redis PDFCHUNK_CACHE_REDIS_URL=redis://localhost:6379/0 pdfchunk serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{"port": "server.port"})
		if err != nil {
			return err
		}
		log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		m := metrics.New()
		c, err := newChunker(cfg, log, m)
		if err != nil {
			return err
		}

		store, err := cache.Open(ctx, cfg.CacheOptions())
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		if closer, ok := store.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		orch := jobs.NewOrchestrator(cfg.JobOptions(), c, store, m, log)
		orch.Start(ctx)

		srv := api.NewServer(c, orch, store, m, log, cfg)
		httpServer := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.Server.RequestTimeout + 30*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			<-ctx.Done()
			log.Info("shutting down...")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)
			orch.Stop()
		}()

		log.Info("starting pdfchunk", "port", cfg.Server.Port, "cache_backend", cfg.Cache.Backend, "job_workers", cfg.Jobs.Workers)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			cancel()
			<-stopped
			return err
		}
		<-stopped
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "8090", "port to listen on")
}
