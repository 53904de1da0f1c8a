package main

import (
	"fmt"

	"github.com/nao1215/sitegraph/internal/linkgraph"
	"github.com/nao1215/sitegraph/internal/persist"
	"github.com/nao1215/sitegraph/internal/urlnorm"
	"github.com/spf13/cobra"
)

// NewGraphCmd creates the graph command and its utilities.
func NewGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect and transform graph and checkpoint files",
		Long: `Graph groups offline utilities over the files written by links and
suburls. None of them opens a browser or the network.`,
	}

	cmd.AddCommand(newGraphCleanCmd())
	cmd.AddCommand(newGraphDepthCmd())
	cmd.AddCommand(newGraphTreeCmd())
	cmd.AddCommand(newGraphSearchCmd())
	cmd.AddCommand(newGraphFilterCmd())
	return cmd
}

// loadGraph loads a graph file and normalizes root.
func loadGraph(path, root string) (linkgraph.Checkpoint, string, error) {
	cp, err := persist.NewGraphStore(path).Load()
	if err != nil {
		return cp, "", err
	}
	if root == "" {
		return cp, "", nil
	}
	normalized, err := urlnorm.Normalize(root)
	if err != nil {
		return cp, "", err
	}
	return cp, normalized, nil
}

func newGraphCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <raw.json> <root-url>",
		Short: "Turn a raw graph into a forest where every page appears once",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			cp, root, err := loadGraph(args[0], args[1])
			if err != nil {
				return err
			}
			cleaned := linkgraph.Clean(cp.Links, root)
			depth := linkgraph.Depth(cleaned, root)
			if err := persist.NewGraphStore(output).Save(linkgraph.Checkpoint{Depth: depth, Links: cleaned}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d links, depth %d\n", output, len(cleaned), cleaned.Count(), depth)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Cleaned graph file")
	_ = cmd.MarkFlagRequired("output") //nolint:errcheck
	return cmd
}

func newGraphDepthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "depth <graph.json> <root-url>",
		Short: "Print the depth of a graph from its root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, root, err := loadGraph(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), linkgraph.Depth(cp.Links, root))
			return nil
		},
	}
}

func newGraphTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <graph.json> <root-url>",
		Short: "Print the pages reachable from the root as an indented tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, root, err := loadGraph(args[0], args[1])
			if err != nil {
				return err
			}
			return linkgraph.WriteTree(cmd.OutOrStdout(), cp.Links, root)
		},
	}
}

func newGraphSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <graph.json> <keyword>",
		Short: "List the URLs of a graph containing a keyword",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cp, _, err := loadGraph(args[0], "")
			if err != nil {
				return err
			}
			for _, u := range linkgraph.Search(cp.Links, args[1]) {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}

func newGraphFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <graph.json>",
		Short: "Write the URLs of a graph matching prefixes as a link list",
		Long: `Filter collects every URL of a graph, keys and links alike, keeps the
ones starting with one of the prefixes and writes them as {"links": [...]},
ready for the content command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefixes, err := cmd.Flags().GetStringSlice("prefix")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			cp, _, err := loadGraph(args[0], "")
			if err != nil {
				return err
			}
			urls := cp.Links.URLs()
			if len(prefixes) > 0 {
				urls = linkgraph.FilterPrefix(urls, prefixes)
			}
			if output == "" {
				for _, u := range urls {
					fmt.Fprintln(cmd.OutOrStdout(), u)
				}
				return nil
			}
			if err := persist.WriteLinkList(output, urls); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d links\n", output, len(urls))
			return nil
		},
	}
	cmd.Flags().StringSliceP("prefix", "p", nil, "Keep URLs starting with one of these prefixes")
	cmd.Flags().StringP("output", "o", "", "Link list file (default: print to stdout)")
	return cmd
}
