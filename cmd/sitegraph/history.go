package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/report"
	"github.com/nao1215/sitegraph/internal/urlnorm"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Show past runs recorded in the history database",
		Long: `History lists the runs recorded in the history database, newest first.
With a site, only the runs of that site are listed.

The database also keeps the union of every recorded link per site and the
latest extracted record per URL; --export and --content read them back.

Examples:
  # Last 20 runs of every site
  sitegraph history

  # Runs of one site as Markdown
  sitegraph history https://example.com/ --report markdown

  # Rebuild a graph file from every run of a site
  sitegraph history https://example.com/ --export graph.json

  # Show the stored record of a page
  sitegraph history --content https://example.com/about`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0 = all)")
	cmd.Flags().String("export", "", "Write the stored link graph of the site to this file")
	cmd.Flags().String("content", "", "Print the stored record of this URL")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	export, err := flags.GetString("export")
	if err != nil {
		return err
	}
	contentURL, err := flags.GetString("content")
	if err != nil {
		return err
	}
	format, err := flags.GetString("report")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var site string
	if len(args) > 0 {
		if site, err = urlnorm.Normalize(args[0]); err != nil {
			return err
		}
	}
	if export != "" && site == "" {
		return errors.New("--export needs a site")
	}
	w, err := report.New(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	switch {
	case contentURL != "":
		return showContent(ctx, out, db, contentURL)
	case export != "":
		return exportGraph(ctx, out, db, site, export)
	}

	runs, err := db.ListRuns(ctx, site, limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(runs)
	return err
}

// showContent prints the stored record of rawURL as JSON.
func showContent(ctx context.Context, out io.Writer, db *database.CrawlDB, rawURL string) error {
	record, err := db.GetContent(ctx, rawURL)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no stored content for %s", rawURL)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

// exportGraph writes the stored graph of site as a cleaned graph file.
func exportGraph(ctx context.Context, out io.Writer, db *database.CrawlDB, site, path string) error {
	graph, err := db.Graph(ctx, site)
	if err != nil {
		return err
	}
	edges, err := db.EdgeCount(ctx, site)
	if err != nil {
		return err
	}
	if edges == 0 {
		return fmt.Errorf("no stored links for %s", site)
	}
	cleaned := linkgraph.Clean(graph, site)
	depth := linkgraph.Depth(cleaned, site)
	if err := persist.NewGraphStore(path).Save(linkgraph.Checkpoint{Depth: depth, Links: cleaned}); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d stored links, %d after cleaning, depth %d\n", path, edges, cleaned.Count(), depth)
	return nil
}
