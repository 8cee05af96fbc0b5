package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfchunk/internal/config"
	"github.com/dgallion1/pdfchunk/internal/metrics"
	"github.com/dgallion1/pdfchunk/internal/parser"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pdfchunk",
	Short: "Split PDFs into per-page chunks with tables rendered inline",
	Long: `pdfchunk decodes a PDF, detects tables (including tables that continue
across pages), composes each page's text with its tables rendered as
pipe-delimited blocks, and emits one chunk per page with overlap text
taken from the neighboring pages.

Settings come from defaults, an optional YAML file (--config) and
PDFCHUNK_* environment variables, e.g. PDFCHUNK_PIPELINE_OVERLAP_FRACTION.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(chunkCmd, tablesCmd, serveCmd)
}

// loadConfig applies changed flags on top of file and environment settings.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) (config.Config, error) {
	overrides := map[string]any{}
	if logLevel != "" {
		overrides["log_level"] = logLevel
	}
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = f.Value.String()
	}
	return config.Load(cfgFile, overrides)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// newCLILogger writes human-readable logs to w, which is stderr so that
// stdout stays clean for chunk output.
func newCLILogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func newChunker(cfg config.Config, log *slog.Logger, m *metrics.Metrics) (*pipeline.Chunker, error) {
	dec := parser.NewPDFDecoder(log)
	dec.Preflight = cfg.Pipeline.Preflight
	dec.Runs = cfg.RunOptions()
	return pipeline.New(dec, cfg.PipelineOptions(), log, m)
}
