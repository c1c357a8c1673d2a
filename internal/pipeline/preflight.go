package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/ingest"
	"github.com/dbsmedya/gopipeline/internal/lock"
	"github.com/dbsmedya/gopipeline/internal/logger"
)

// PreflightError represents a preflight check failure.
type PreflightError struct {
	Check   string
	Message string
	Files   []string
}

func (e *PreflightError) Error() string {
	if len(e.Files) > 0 {
		return fmt.Sprintf("%s: %s (files: %v)", e.Check, e.Message, e.Files)
	}
	return fmt.Sprintf("%s: %s", e.Check, e.Message)
}

// PreflightChecker performs safety checks before a pipeline run.
type PreflightChecker struct {
	db     *sql.DB
	cfg    *config.Config
	logger *logger.Logger
}

// NewPreflightChecker creates a new preflight checker.
func NewPreflightChecker(db *sql.DB, cfg *config.Config, log *logger.Logger) (*PreflightChecker, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &PreflightChecker{
		db:     db,
		cfg:    cfg,
		logger: log,
	}, nil
}

// RunAllChecks runs all preflight checks.
func (p *PreflightChecker) RunAllChecks(ctx context.Context) error {
	p.logger.Info("Running preflight checks...")

	if err := p.CheckInputFiles(); err != nil {
		return err
	}
	if err := p.CheckWarehouse(ctx); err != nil {
		return err
	}
	if err := p.CheckTableEngine(ctx); err != nil {
		return err
	}
	if err := p.CheckLoadLock(ctx); err != nil {
		return err
	}
	if err := p.CheckAdvisor(); err != nil {
		return err
	}

	p.logger.Info("All preflight checks PASSED")
	return nil
}

// CheckInputFiles verifies the input directory exists and that the
// configured files (or at least one supported file when scanning) are there.
func (p *PreflightChecker) CheckInputFiles() error {
	p.logger.Debug("Checking input files...")

	dir := p.cfg.Pipeline.InputDir

	if len(p.cfg.Pipeline.Files) > 0 {
		var missing []string
		for _, name := range p.cfg.Pipeline.Files {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return &PreflightError{
				Check:   "INPUT_FILE_CHECK",
				Message: fmt.Sprintf("Configured files not found in %s", dir),
				Files:   missing,
			}
		}
		p.logger.Debugf("Input file check PASSED (%d configured files)", len(p.cfg.Pipeline.Files))
		return nil
	}

	files, err := ingest.DiscoverFiles(dir)
	if err != nil {
		return &PreflightError{
			Check:   "INPUT_FILE_CHECK",
			Message: err.Error(),
		}
	}
	if len(files) == 0 {
		return &PreflightError{
			Check:   "INPUT_FILE_CHECK",
			Message: fmt.Sprintf("No supported files (.csv, .json) found in %s", dir),
		}
	}

	p.logger.Debugf("Input file check PASSED (%d files discovered)", len(files))
	return nil
}

// CheckWarehouse verifies the warehouse connection is alive.
func (p *PreflightChecker) CheckWarehouse(ctx context.Context) error {
	p.logger.Debug("Checking warehouse connection...")

	if err := p.db.PingContext(ctx); err != nil {
		return &PreflightError{
			Check:   "WAREHOUSE_CHECK",
			Message: fmt.Sprintf("Warehouse unreachable: %v", err),
		}
	}

	p.logger.Debug("Warehouse check PASSED")
	return nil
}

// CheckTableEngine verifies the warehouse table uses InnoDB when it already
// exists. A missing table passes; the loader creates it on first use.
func (p *PreflightChecker) CheckTableEngine(ctx context.Context) error {
	p.logger.Debug("Checking warehouse table storage engine...")

	const query = `
		SELECT ENGINE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		AND TABLE_NAME = ?`

	var engine sql.NullString
	err := p.db.QueryRowContext(ctx, query, p.cfg.Warehouse.Database, p.cfg.Warehouse.Table).Scan(&engine)
	if err == sql.ErrNoRows {
		p.logger.Debugf("Table %s does not exist yet, loader will create it", p.cfg.Warehouse.Table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query storage engine: %w", err)
	}

	if engine.Valid && engine.String != "InnoDB" {
		return &PreflightError{
			Check:   "STORAGE_ENGINE_CHECK",
			Message: fmt.Sprintf("Table %s uses %s, only InnoDB is supported. Use ALTER TABLE to convert", p.cfg.Warehouse.Table, engine.String),
		}
	}

	p.logger.Debug("Storage engine check PASSED")
	return nil
}

// CheckLoadLock warns when another instance is currently loading into the
// warehouse table. This is a warning, not an error: loads queue behind the
// advisory lock.
func (p *PreflightChecker) CheckLoadLock(ctx context.Context) error {
	p.logger.Debug("Checking for a running load...")

	running, err := lock.IsLoadRunning(ctx, p.db, p.cfg.Warehouse.Table)
	if err != nil {
		return fmt.Errorf("failed to check load lock: %w", err)
	}

	if running {
		p.logger.Warnf("Another instance is loading into %s, loads will queue behind it", p.cfg.Warehouse.Table)
	} else {
		p.logger.Debug("Load lock check PASSED (no load running)")
	}

	return nil
}

// CheckAdvisor verifies the advisor has an API key when enabled.
func (p *PreflightChecker) CheckAdvisor() error {
	if !p.cfg.Advisor.Enabled {
		return nil
	}

	if p.cfg.Advisor.APIKey == "" {
		return &PreflightError{
			Check:   "ADVISOR_CHECK",
			Message: "Advisor is enabled but no API key is configured. Set advisor.api_key or GEMINI_API_KEY",
		}
	}

	p.logger.Debug("Advisor check PASSED")
	return nil
}
