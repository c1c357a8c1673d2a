package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/ingest"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/pipeline"
	"github.com/dbsmedya/gopipeline/internal/quality"
)

var checkFiles []string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Score input files and show routing decisions without loading",
	Long: `Check runs ingestion and quality scoring over the input files and
reports the routing decision each file would receive, without cleaning
anything and without connecting to the warehouse.

Decisions are always rule-based here so the output is deterministic.

Example:
  gopipeline check --config pipeline.yaml`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkFiles, "files", nil,
		"Input file names to check (overrides configuration)")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.MaxRetries, overrides.MaxParallel,
		overrides.BatchSize, overrides.NoAdvisor)

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Resolve input files: flag, then config, then directory scan
	files := checkFiles
	if len(files) == 0 {
		files = cfg.Pipeline.Files
	}
	if len(files) == 0 {
		files, err = ingest.DiscoverFiles(cfg.Pipeline.InputDir)
		if err != nil {
			return fmt.Errorf("failed to scan input directory: %w", err)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found in %s", cfg.Pipeline.InputDir)
	}

	// Deterministic components only: no advisor, no warehouse
	reader, err := ingest.NewReader(nil, ingest.NewSchemaTracker(), log)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}

	p := cfg.Pipeline
	checker := quality.NewChecker(p.KeyColumn, p.AmountColumn, p.DateColumn, log)
	router := pipeline.NewRouter(nil, log)

	ctx := context.Background()

	cmd.Printf("\n=== Pipeline Check ===\n")
	cmd.Printf("Input directory: %s\n", p.InputDir)
	cmd.Printf("Files: %d\n", len(files))

	hasErrors := false
	for _, name := range files {
		cmd.Printf("\n--- %s ---\n", name)

		ds, md, err := reader.Ingest(ctx, filepath.Join(p.InputDir, name))
		if err != nil {
			cmd.Printf("Ingest failed: %v\n", err)
			hasErrors = true
			continue
		}

		report := checker.Check(ds)
		decision := router.Decide(ctx, report.Score, report.Issues)

		cmd.Printf("Format: %s\n", md.Format)
		cmd.Printf("Rows: %d\n", md.Rows)
		cmd.Printf("Columns: %d\n", len(md.Schema))
		if md.SchemaChanged {
			cmd.Printf("Schema change: new columns %v\n", md.NewColumns)
		}
		cmd.Printf("Quality Score: %d/100\n", report.Score)
		cmd.Printf("Issues: %d\n", len(report.Issues))
		for _, issue := range report.Issues {
			if issue.Column != "" {
				cmd.Printf("  - %s (%s)\n", issue.Kind, issue.Column)
			} else {
				cmd.Printf("  - %s\n", issue.Kind)
			}
		}
		cmd.Printf("Decision: %s\n", decision)
	}

	cmd.Println("\n=== End of Check ===")
	cmd.Println("\nℹ️  No data was modified. Use 'run' command to execute the pipeline.")

	if hasErrors {
		return fmt.Errorf("check failed for one or more files")
	}
	return nil
}
