package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/sitegraph.yaml
var configTemplate embed.FS

const templatePath = "templates/sitegraph.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an annotated sitegraph configuration file",
		Long: `Init writes a .sitegraph configuration file with every option
documented and commented out.

Examples:
  # Create .sitegraph in the current directory
  sitegraph init

  # Create the file in the XDG config directory
  sitegraph init --global

  # Force overwrite an existing file
  sitegraph init -f

  # Print the template instead of writing it
  sitegraph init --stdout > my.yaml`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().Bool("global", false,
		"Write config.yaml into the XDG config directory instead")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().Bool("stdout", false,
		"Print the template to stdout instead of writing a file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	global, err := cmd.Flags().GetBool("global")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}
	if toStdout {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	if global {
		outputPath = filepath.Join(config.XDGConfigDir(), "config.yaml")
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	if _, err := config.LoadConfigFile(outputPath); err != nil {
		return fmt.Errorf("written configuration does not load: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nUncomment the options you need, for example:")
	fmt.Fprintln(out, "  - crawl depth and waits per site")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")
	fmt.Fprintln(out, "  - request headers for content fetches")
	return nil
}
