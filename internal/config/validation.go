package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// identifierPattern restricts configured column and table names to
// characters that are safe to interpolate as quoted SQL identifiers.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if err := c.validatePipeline(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateWarehouse(); err != nil {
		errors = append(errors, err...)
	}

	// Advisor settings only matter when the advisor is enabled
	if c.Advisor.Enabled {
		if err := c.validateAdvisor(); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateProcessing(); err != nil {
		errors = append(errors, err...)
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validatePipeline() ValidationErrors {
	var errors ValidationErrors

	if c.Pipeline.InputDir == "" && len(c.Pipeline.Files) == 0 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.input_dir",
			Message: "input_dir is required when no files are listed",
		})
	}

	errors = append(errors, c.validateColumn("pipeline.key_column", c.Pipeline.KeyColumn)...)
	errors = append(errors, c.validateColumn("pipeline.amount_column", c.Pipeline.AmountColumn)...)
	errors = append(errors, c.validateColumn("pipeline.date_column", c.Pipeline.DateColumn)...)

	return errors
}

func (c *Config) validateColumn(field, name string) ValidationErrors {
	var errors ValidationErrors

	if name == "" {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "column name is required",
		})
		return errors
	}

	if !identifierPattern.MatchString(name) {
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "column name must contain only alphanumeric characters and underscores",
		})
	}

	return errors
}

func (c *Config) validateWarehouse() ValidationErrors {
	var errors ValidationErrors

	if c.Warehouse.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.host",
			Message: "host is required",
		})
	}

	if c.Warehouse.Port <= 0 || c.Warehouse.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "warehouse.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Warehouse.User == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.user",
			Message: "user is required",
		})
	}

	if c.Warehouse.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.database",
			Message: "database name is required",
		})
	}

	if c.Warehouse.Table == "" {
		errors = append(errors, ValidationError{
			Field:   "warehouse.table",
			Message: "table name is required",
		})
	} else if !identifierPattern.MatchString(c.Warehouse.Table) {
		errors = append(errors, ValidationError{
			Field:   "warehouse.table",
			Message: "table name must contain only alphanumeric characters and underscores",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[c.Warehouse.TLS] {
		errors = append(errors, ValidationError{
			Field:   "warehouse.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if c.Warehouse.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "warehouse.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if c.Warehouse.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "warehouse.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateAdvisor() ValidationErrors {
	var errors ValidationErrors

	if c.Advisor.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "advisor.api_key",
			Message: "api_key is required when advisor is enabled",
		})
	}

	if c.Advisor.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "advisor.model",
			Message: "model is required when advisor is enabled",
		})
	}

	if c.Advisor.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "advisor.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	return errors
}

func (c *Config) validateProcessing() ValidationErrors {
	var errors ValidationErrors

	if c.Processing.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.max_retries",
			Message: "max_retries cannot be negative",
		})
	}

	if c.Processing.RetryBackoffSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.retry_backoff_seconds",
			Message: "retry_backoff_seconds cannot be negative",
		})
	}

	if c.Processing.MaxParallel < 1 {
		errors = append(errors, ValidationError{
			Field:   "processing.max_parallel",
			Message: "max_parallel must be at least 1",
		})
	}

	if c.Processing.BatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.batch_size",
			Message: "batch_size must be positive",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
