package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/database"
	"github.com/dbsmedya/gopipeline/internal/lock"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/sqlutil"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Truncate the warehouse table",
	Long: `Reset empties the warehouse table so the next run starts from a clean
slate. The truncate runs under the same advisory lock the loader uses, so
it waits for any in-flight load to finish.

WARNING: This permanently deletes all rows in the warehouse table.

Example:
  gopipeline reset --config pipeline.yaml --yes`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false,
		"Confirm the truncate (required)")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("reset permanently deletes warehouse data; re-run with --yes to confirm")
	}

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

	table, err := sqlutil.QuoteIdentifierSafe(cfg.Warehouse.Table)
	if err != nil {
		return fmt.Errorf("invalid warehouse table: %w", err)
	}

	log.Infow("Resetting warehouse table",
		"table", cfg.Warehouse.Table,
		"database", cfg.Warehouse.Database,
	)

	// Connect to the warehouse
	ctx := context.Background()
	dbManager := database.NewManager(&cfg.Warehouse)
	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer dbManager.Close()

	// Truncate under the load lock so we never race an in-flight load
	err = lock.WithLoadLock(ctx, dbManager.Warehouse, cfg.Warehouse.Table, func() error {
		if _, err := dbManager.Warehouse.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", cfg.Warehouse.Table, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return fmt.Errorf("a load is currently running on %s; try again later", cfg.Warehouse.Table)
		}
		return err
	}

	cmd.Printf("\n=== Reset Complete ===\n")
	cmd.Printf("Table: %s\n", cfg.Warehouse.Destination())
	cmd.Println("\nℹ️  All rows deleted. The table schema was preserved.")

	return nil
}
