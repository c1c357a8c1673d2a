package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/database"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/pipeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and runs preflight checks
against the warehouse to ensure safe execution.

Checks performed:
  - Configuration syntax and required fields
  - Input files present and of a supported format
  - Warehouse connectivity
  - Warehouse table engine is InnoDB (when the table exists)
  - No load currently running on the warehouse table
  - Advisor API key present when the advisor is enabled

Example:
  gopipeline validate --config pipeline.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	if cfg.Advisor.Enabled && cfg.Advisor.APIKey == "" {
		cfg.Advisor.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", configFile)

	if err := cfg.Validate(); err != nil {
		cmd.Printf("❌ Configuration invalid:\n%v\n", err)
		return fmt.Errorf("configuration validation failed")
	}
	cmd.Printf("✅ Configuration valid\n")

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("Starting preflight checks...")

	// Connect to the warehouse
	ctx := context.Background()
	dbManager := database.NewManager(&cfg.Warehouse)
	if err := dbManager.Connect(ctx); err != nil {
		cmd.Printf("❌ Warehouse connection failed: %v\n", err)
		return fmt.Errorf("warehouse connection failed")
	}
	defer dbManager.Close()
	cmd.Printf("✅ Warehouse reachable (%s:%d/%s)\n",
		cfg.Warehouse.Host, cfg.Warehouse.Port, cfg.Warehouse.Database)

	// Run preflight checks
	checker, err := pipeline.NewPreflightChecker(dbManager.Warehouse, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create preflight checker: %w", err)
	}

	if err := checker.RunAllChecks(ctx); err != nil {
		cmd.Printf("❌ Preflight checks failed: %v\n", err)
		return fmt.Errorf("preflight checks failed")
	}

	cmd.Println("\n=== Validation Complete ===")
	cmd.Println("✅ Configuration and warehouse validated successfully")
	return nil
}
