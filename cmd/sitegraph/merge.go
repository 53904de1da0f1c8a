package main

import (
	"fmt"

	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/spf13/cobra"
)

// NewMergeCmd creates the merge command.
func NewMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <content.json>...",
		Short: "Concatenate content files into one",
		Long: `Merge reads the record arrays of the given content files and writes them,
in argument order, into a single file. Records are not deduplicated.

Example:
  sitegraph merge -o all.json docs.json blog.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			records, err := persist.MergeContents(args...)
			if err != nil {
				return err
			}
			if err := persist.WriteContents(output, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records from %d file(s)\n", output, len(records), len(args))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Merged content file")
	_ = cmd.MarkFlagRequired("output") //nolint:errcheck
	return cmd
}
