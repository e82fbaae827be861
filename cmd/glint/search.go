package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/padiauj/glint/internal/search"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Query the current index",
	Long: `search evaluates a query line against the saved index.

Query syntax:
  bare words        substring match against the file/directory name
  *.log, report?    wildcard match (case-insensitive)
  r/^img_\d+/       regex match
  ext:pdf,docx      restrict to these extensions
  file: / files:    files only
  dir: / dirs: / folder:   directories only
  path:<text>       match against the full path instead of the name
  in:<prefix>       restrict to paths under this prefix

Examples:
  glint search report
  glint search ext:pdf,docx invoice
  glint search dir: in:C:\Users`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(strings.Join(args, " "))
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 uses the configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as newline-delimited JSON-ish rows (path\\tsize)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(line string) error {
	loaded, err := store.LoadAndUpgrade()
	if err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	cat = loaded

	q, err := search.ParseQuery(line)
	if err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.UI.MaxResults
	}

	hits := search.SearchLimited(cat.AllRecords(), q, limit)
	search.SortByScore(hits)

	for _, h := range hits {
		if searchJSON {
			size := "-"
			if h.Record.Size != nil {
				size = fmt.Sprintf("%d", *h.Record.Size)
			}
			fmt.Printf("%s\t%s\n", h.Record.Path, size)
			continue
		}
		kind := "f"
		if h.Record.IsDir {
			kind = "d"
		}
		fmt.Printf("%s  %s\n", kind, h.Record.Path)
	}
	fmt.Printf("%d result(s)\n", len(hits))
	return nil
}
