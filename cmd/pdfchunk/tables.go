package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfchunk/internal/errs"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
	"github.com/dgallion1/pdfchunk/internal/tables"
)

var tablesJSON bool

var tablesCmd = &cobra.Command{
	Use:   "tables FILE",
	Short: "List the tables detected on each page",
	Long: `List the tables detected on each page with their multi-page status.

A continuation names the table it continues; its rows are rendered once,
on the page where that table starts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		log := newCLILogger(cmd.ErrOrStderr(), cfg.LogLevel)

		data, err := os.ReadFile(args[0])
		if err != nil {
			return &errs.SourceError{Op: "open " + args[0], Err: err}
		}
		c, err := newChunker(cfg, log, nil)
		if err != nil {
			return err
		}
		a, err := c.Analyze(cmd.Context(), data)
		if err != nil {
			return err
		}

		reports := tableReports(a)
		if tablesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}
		printTables(cmd.OutOrStdout(), a, reports)
		return nil
	},
}

func init() {
	tablesCmd.Flags().BoolVar(&tablesJSON, "json", false, "print the table records as JSON")
}

type tableReport struct {
	ID     string        `json:"table_id"`
	Page   int           `json:"page"`
	Status tables.Status `json:"status"`
	Root   string        `json:"root_id"`
	Rows   [][]string    `json:"rows"`
}

// tableReports lists every record in page order. Continuations carry the
// rows of their root table.
func tableReports(a *pipeline.Analysis) []tableReport {
	out := []tableReport{}
	for _, p := range a.Pages {
		for _, rec := range p.Tables {
			root := a.Registry.Root(rec)
			out = append(out, tableReport{
				ID:     rec.ID,
				Page:   p.PageNumber,
				Status: rec.Status,
				Root:   root.ID,
				Rows:   root.Table.Texts(),
			})
		}
	}
	return out
}

func printTables(w io.Writer, a *pipeline.Analysis, reports []tableReport) {
	byPage := make(map[int][]tableReport)
	for _, r := range reports {
		byPage[r.Page] = append(byPage[r.Page], r)
	}
	for _, p := range a.Pages {
		rs := byPage[p.PageNumber]
		fmt.Fprintf(w, "Page %d: %d table(s)", p.PageNumber, len(rs))
		if p.Err != nil {
			fmt.Fprintf(w, " [degraded: %v]", p.Err)
		}
		fmt.Fprintln(w)
		for _, r := range rs {
			if r.Status == tables.MultiPageContinuation {
				fmt.Fprintf(w, "  %s %s of %s\n", r.ID, r.Status, r.Root)
				continue
			}
			fmt.Fprintf(w, "  %s %s, %d row(s)\n", r.ID, r.Status, len(r.Rows))
		}
	}
	fmt.Fprintf(w, "Total: %d table(s) on %d page(s)\n", len(reports), len(a.Pages))
}
