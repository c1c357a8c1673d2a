// Package config provides configuration structures and loading for GoPipeline.
package config

import "fmt"

// Config represents the complete application configuration.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Warehouse  WarehouseConfig  `yaml:"warehouse" mapstructure:"warehouse"`
	Advisor    AdvisorConfig    `yaml:"advisor" mapstructure:"advisor"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// PipelineConfig describes the input files and the column conventions the
// quality and cleaning stages key on.
type PipelineConfig struct {
	InputDir     string   `yaml:"input_dir" mapstructure:"input_dir"`
	Files        []string `yaml:"files" mapstructure:"files"` // empty = scan input_dir
	KeyColumn    string   `yaml:"key_column" mapstructure:"key_column"`
	AmountColumn string   `yaml:"amount_column" mapstructure:"amount_column"`
	DateColumn   string   `yaml:"date_column" mapstructure:"date_column"`
}

// WarehouseConfig represents the MySQL destination connection configuration.
type WarehouseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Table              string `yaml:"table" mapstructure:"table"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// Destination returns the warehouse location string recorded in run reports.
func (w *WarehouseConfig) Destination() string {
	return fmt.Sprintf("mysql://%s.%s", w.Database, w.Table)
}

// AdvisorConfig represents the optional Gemini advisory client.
// The pipeline is fully functional with the advisor disabled.
type AdvisorConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	Model          string `yaml:"model" mapstructure:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// ProcessingConfig represents retry and batching settings.
type ProcessingConfig struct {
	MaxRetries          int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffSeconds float64 `yaml:"retry_backoff_seconds" mapstructure:"retry_backoff_seconds"`
	MaxParallel         int     `yaml:"max_parallel" mapstructure:"max_parallel"`
	BatchSize           int     `yaml:"batch_size" mapstructure:"batch_size"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InputDir:     "data",
			KeyColumn:    "order_id",
			AmountColumn: "amount",
			DateColumn:   "order_date",
		},
		Warehouse: WarehouseConfig{
			Port:               3306,
			Table:              "sales_data",
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Advisor: AdvisorConfig{
			Enabled:        false,
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 30,
		},
		Processing: ProcessingConfig{
			MaxRetries:          2,
			RetryBackoffSeconds: 1,
			MaxParallel:         1,
			BatchSize:           500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}
