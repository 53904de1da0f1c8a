package main

import (
	"fmt"
	"os"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitegraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitegraph",
		Short: "Resumable website link-graph crawler and content extractor",
		Long: `sitegraph maps the link graph of a website with a headless browser,
including links that only appear after clicking pagination buttons or
javascript: anchors, and extracts the main text of the discovered pages.

Every output file is also a checkpoint: rerunning the same command after
an interruption resumes without fetching finished pages again.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.BoolP("quiet", "q", false, "Disable the progress spinner")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .sitegraph in current or home directory)")
	flags.Bool("no-db", false, "Do not record the run in the history database")
	flags.String("db-dir", config.XDGDataDir(), "Directory of the history database")
	flags.StringP("report", "r", config.ReportText, "Run report format: text, json or markdown")
	flags.String("report-file", "", "Write the run report to this file instead of stdout")
	flags.Int("retries", config.DefaultRetries, "Attempts of a whole-site crawl before giving up")

	cmd.AddCommand(NewLinksCmd())
	cmd.AddCommand(NewSubURLsCmd())
	cmd.AddCommand(NewContentCmd())
	cmd.AddCommand(NewGraphCmd())
	cmd.AddCommand(NewMergeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
