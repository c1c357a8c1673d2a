package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/ingest"
)

var listFilesCmd = &cobra.Command{
	Use:   "list-files",
	Short: "List input files discovered in the input directory",
	Long: `List-files shows the supported input files (.csv, .json) found in the
configured input directory, with their format and size.

Example:
  gopipeline list-files --config pipeline.yaml`,
	RunE: runListFiles,
}

func init() {
	rootCmd.AddCommand(listFilesCmd)
}

func runListFiles(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := cfg.Pipeline.InputDir
	files, err := ingest.DiscoverFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to scan input directory: %w", err)
	}

	if len(files) == 0 {
		cmd.Printf("No supported files (.csv, .json) found in %s\n", dir)
		return nil
	}

	configured := make(map[string]bool, len(cfg.Pipeline.Files))
	for _, name := range cfg.Pipeline.Files {
		configured[name] = true
	}

	cmd.Printf("Input files in %s:\n\n", dir)

	for i, name := range files {
		cmd.Printf("%d. %s", i+1, name)
		if configured[name] {
			cmd.Print(" (configured)")
		}
		cmd.Println()

		cmd.Printf("   Format: %s\n", strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))

		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			cmd.Printf("   Size:   unknown (%v)\n", err)
			continue
		}
		cmd.Printf("   Size:   %d bytes\n", info.Size())
	}

	cmd.Printf("\nTotal: %d file(s)\n", len(files))

	// Configured files that are not on disk yet are worth calling out
	var missing []string
	for _, name := range cfg.Pipeline.Files {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		cmd.Printf("\nConfigured but missing: %v\n", missing)
	}

	return nil
}
