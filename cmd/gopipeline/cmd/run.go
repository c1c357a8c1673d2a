package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gopipeline/internal/advisor"
	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/database"
	"github.com/dbsmedya/gopipeline/internal/ingest"
	"github.com/dbsmedya/gopipeline/internal/loader"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/pipeline"
	"github.com/dbsmedya/gopipeline/internal/report"
)

var (
	runFiles          []string
	runReportPath     string
	useAdvisorRouting bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline over the input files",
	Long: `Run processes each input file through the four pipeline stages:
ingest, quality check, optional transformation and warehouse load.

Each file is routed by its quality score:
  below 60  - aborted, nothing is loaded
  60 to 80  - cleaned, then loaded
  above 80  - loaded directly

Files are resolved in order from --files, then the configured file list,
then a scan of the input directory.

Example:
  gopipeline run --config pipeline.yaml --files day1_clean.csv,day2_messy.csv`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringSliceVar(&runFiles, "files", nil,
		"Input file names to process (overrides configuration)")
	runCmd.Flags().StringVar(&runReportPath, "report", "",
		"Write the run report as JSON to this path")
	runCmd.Flags().BoolVar(&useAdvisorRouting, "use-advisor-routing", false,
		"Let the advisor override rule-based routing decisions (requires advisor enabled)")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
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

	// The API key may come from the environment instead of the config file
	if cfg.Advisor.Enabled && cfg.Advisor.APIKey == "" {
		cfg.Advisor.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infow("Starting pipeline run",
		"config", configFile,
		"input_dir", cfg.Pipeline.InputDir,
	)

	// Resolve input files: flag, then config, then directory scan
	files := runFiles
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

	// Setup context with signal handling
	ctx := database.SetupSignalHandler()

	// Connect to the warehouse
	dbManager := database.NewManager(&cfg.Warehouse)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer dbManager.Close()

	// Create advisor client (optional)
	var client advisor.Client
	if cfg.Advisor.Enabled {
		gemini, err := advisor.NewGemini(ctx, cfg.Advisor.APIKey, cfg.Advisor.Model,
			time.Duration(cfg.Advisor.TimeoutSeconds)*time.Second)
		if err != nil {
			return fmt.Errorf("failed to create advisor client: %w", err)
		}
		client = gemini
		log.Infow("Advisor enabled", "model", cfg.Advisor.Model, "routing", useAdvisorRouting)
	}

	// Create pipeline components
	reader, err := ingest.NewReader(client, ingest.NewSchemaTracker(), log)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}

	sink, err := loader.New(dbManager.Warehouse, &cfg.Warehouse, cfg.Processing.BatchSize, log)
	if err != nil {
		return fmt.Errorf("failed to create loader: %w", err)
	}

	orch, err := pipeline.NewOrchestrator(cfg, reader, sink, client, useAdvisorRouting, log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// Process all files
	summary := orch.Run(ctx, files)

	// Display results
	out := cmd.OutOrStdout()
	for _, oc := range summary.Outcomes {
		report.PrintOutcome(out, oc)
	}
	report.PrintSummary(out, summary)

	if runReportPath != "" {
		if err := report.WriteJSON(runReportPath, summary); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Infow("Report written", "path", runReportPath)
	}

	if summary.HasFailures() {
		return fmt.Errorf("pipeline run completed with %d failed file(s)", summary.Failed)
	}

	return nil
}
