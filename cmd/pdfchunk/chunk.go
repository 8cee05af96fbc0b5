package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/chunker"
	"github.com/dgallion1/pdfchunk/internal/doctree"
	"github.com/dgallion1/pdfchunk/internal/errs"
)

var (
	chunkNoTables bool
	chunkJSON     bool
	chunkCache    bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Chunk a PDF and print a summary or the chunks as JSON",
	Long: `Chunk a PDF into one chunk per page.

By default a per-chunk summary is printed. With --json the chunk list is
written to stdout in the cached chunk format.

With --cache the result is looked up and stored in the configured cache
backend, falling back to a file cache under cache.dir when none is set.

Examples:
  pdfchunk chunk report.pdf
  pdfchunk chunk report.pdf --json --overlap 0.2
  pdfchunk chunk report.pdf --no-tables --cache`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, map[string]string{"overlap": "pipeline.overlap_fraction"})
		if err != nil {
			return err
		}
		log := newCLILogger(cmd.ErrOrStderr(), cfg.LogLevel)
		ctx := cmd.Context()

		extractTables := cfg.Pipeline.ExtractTables && !chunkNoTables
		path := args[0]

		c, err := newChunker(cfg, log, nil)
		if err != nil {
			return err
		}
		if !chunkCache {
			chunks, err := c.ProcessFile(ctx, path, extractTables)
			if err != nil {
				return err
			}
			return writeChunks(cmd.OutOrStdout(), chunks, chunkJSON)
		}

		opts := cfg.CacheOptions()
		if opts.Backend == cache.BackendNone {
			opts.Backend = cache.BackendFile
		}
		store, err := cache.Open(ctx, opts)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return &errs.SourceError{Op: "open " + path, Err: err}
		}
		key := cache.ContentKey(data, extractTables)
		if chunks, hit, err := store.Get(ctx, key); err != nil {
			log.Warn("cache lookup failed", "cache_key", key, "error", err)
		} else if hit {
			log.Info("loaded chunks from cache", "cache_key", key, "chunks", len(chunks))
			return writeChunks(cmd.OutOrStdout(), chunks, chunkJSON)
		}

		chunks, err := c.Process(ctx, data, extractTables)
		if err != nil {
			return err
		}
		if err := store.Put(ctx, key, chunks); err != nil {
			log.Error("cache store failed", "cache_key", key, "error", err)
		} else {
			log.Info("saved chunks to cache", "cache_key", key)
		}
		return writeChunks(cmd.OutOrStdout(), chunks, chunkJSON)
	},
}

func init() {
	chunkCmd.Flags().BoolVar(&chunkNoTables, "no-tables", false, "skip table detection, emit linear text only")
	chunkCmd.Flags().Float64("overlap", chunker.DefaultOverlapFraction, "fraction of each neighbor page used as overlap (0..1)")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "print chunks as JSON instead of a summary")
	chunkCmd.Flags().BoolVar(&chunkCache, "cache", false, "look up and store results in the cache")
}

func writeChunks(w io.Writer, chunks []doctree.Chunk, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}
	printSummary(w, chunks)
	return nil
}

const previewRunes = 200

// printSummary writes one block per chunk followed by totals.
func printSummary(w io.Writer, chunks []doctree.Chunk) {
	s := chunker.Summarize(chunks)

	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "CHUNK SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	for i, cs := range s.Chunks {
		fmt.Fprintf(w, "\nChunk %d (Page %d):\n", cs.ChunkID, cs.PageNumber)
		fmt.Fprintf(w, "  Text length: %d characters\n", cs.TextLength)
		fmt.Fprintf(w, "  Tables found: %d\n", cs.Tables)
		fmt.Fprintf(w, "  Estimated tokens: %d\n", cs.EstimatedTokens)
		fmt.Fprintf(w, "  Overlap: previous=%t next=%t chars=%d\n", cs.HasPrevious, cs.HasNext, cs.OverlapChars)
		fmt.Fprintf(w, "  Text preview: %s\n", preview(chunks[i].OriginalPageText))
		fmt.Fprintln(w, strings.Repeat("-", 40))
	}

	fmt.Fprintf(w, "\nTotal: %d chunks, %d tables, %d characters (avg %.1f), ~%d tokens\n",
		s.TotalChunks, s.TotalTables, s.TotalTextLength, s.AvgTextLength, s.EstimatedTokens)
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}
