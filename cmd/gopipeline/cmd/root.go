package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile     string
	logLevel    string
	logFormat   string
	maxRetries  int
	maxParallel int
	batchSize   int
	noAdvisor   bool
)

var rootCmd = &cobra.Command{
	Use:   "gopipeline",
	Short: "Quality-Gated Data Pipeline Loader",
	Long: `A CLI tool that ingests CSV/JSON sales files, scores their data quality,
routes each file to cleaning or loading based on the score, and loads the
result into a MySQL warehouse with additive schema evolution.

Features:
  - Rule-based quality scoring with fixed penalty weights
  - Score-banded routing (abort / clean / proceed)
  - Deterministic cleaning: dedup, null filling, amount capping, date normalization
  - Batched warehouse loads with automatic column addition
  - Optional Gemini advisory layer (never required for correctness)`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "pipeline.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides. max-retries defaults to -1 so that an explicit
	// --max-retries=0 is distinguishable from the flag being absent.
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", -1,
		"Override retry count per pipeline stage (0 disables retries)")
	rootCmd.PersistentFlags().IntVar(&maxParallel, "max-parallel", 0,
		"Override number of files processed concurrently")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override rows per INSERT statement during loading")

	// Advisor override
	rootCmd.PersistentFlags().BoolVar(&noAdvisor, "no-advisor", false,
		"Disable the Gemini advisor even if enabled in configuration")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel    string
	LogFormat   string
	MaxRetries  int
	MaxParallel int
	BatchSize   int
	NoAdvisor   bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		MaxRetries:  maxRetries,
		MaxParallel: maxParallel,
		BatchSize:   batchSize,
		NoAdvisor:   noAdvisor,
	}
}
