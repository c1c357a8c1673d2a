// Package loader writes cleaned datasets into the MySQL warehouse with
// additive schema evolution.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/gopipeline/internal/config"
	"github.com/dbsmedya/gopipeline/internal/dataset"
	"github.com/dbsmedya/gopipeline/internal/lock"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/sqlutil"
)

// ErrEmptyDataset is returned when a load is attempted with no rows or
// no columns.
var ErrEmptyDataset = errors.New("empty dataset")

// DefaultBatchSize is the number of rows per INSERT statement when the
// configuration does not specify one.
const DefaultBatchSize = 500

// Result contains statistics about a single load.
type Result struct {
	Destination  string        // warehouse destination, e.g. mysql://db.table
	RowsLoaded   int64         // rows inserted
	Batches      int           // INSERT statements executed
	TableCreated bool          // table did not exist before this load
	ColumnsAdded []string      // columns added by schema evolution
	Duration     time.Duration // time taken for the load
}

// Loader manages loads into a single warehouse table. All loads into the
// table are serialized through a MySQL advisory lock so parallel file
// processing cannot interleave schema changes and inserts.
type Loader struct {
	db        *sql.DB
	cfg       *config.WarehouseConfig
	batchSize int
	logger    *logger.Logger
}

// New creates a loader for the configured warehouse table.
func New(db *sql.DB, cfg *config.WarehouseConfig, batchSize int, log *logger.Logger) (*Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("warehouse config is nil")
	}
	if _, err := sqlutil.QuoteIdentifierSafe(cfg.Table); err != nil {
		return nil, fmt.Errorf("invalid warehouse table: %w", err)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Loader{
		db:        db,
		cfg:       cfg,
		batchSize: batchSize,
		logger:    log,
	}, nil
}

// Load writes the dataset into the warehouse table, creating the table on
// first use and adding any new columns before inserting. Returns
// ErrEmptyDataset when there is nothing to load.
func (l *Loader) Load(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	if ds == nil || ds.NumRows() == 0 || ds.NumColumns() == 0 {
		return nil, ErrEmptyDataset
	}

	// Entirely null columns load fine but usually indicate an upstream
	// problem, so call them out
	for _, col := range ds.Columns() {
		if allNull(ds.Column(col)) {
			l.logger.Warnf("Column %q is entirely null", col)
		}
	}

	startTime := time.Now()
	result := &Result{
		Destination: l.cfg.Destination(),
	}

	err := lock.WithLoadLock(ctx, l.db, l.cfg.Table, func() error {
		existing, err := l.tableColumns(ctx)
		if err != nil {
			return err
		}

		if len(existing) == 0 {
			if err := l.createTable(ctx, ds); err != nil {
				return err
			}
			result.TableCreated = true
		} else {
			added, err := l.evolveSchema(ctx, ds, existing)
			if err != nil {
				return err
			}
			result.ColumnsAdded = added
		}

		countBefore, err := l.countRows(ctx)
		if err != nil {
			return err
		}

		rows, batches, err := l.insertRows(ctx, ds)
		if err != nil {
			return err
		}
		result.RowsLoaded = rows
		result.Batches = batches

		// Post-load verification is advisory: a mismatch is logged, not
		// fatal, since the transaction already committed
		countAfter, err := l.countRows(ctx)
		if err != nil {
			l.logger.Warnf("Row count verification skipped: %v", err)
			return nil
		}
		if grew := countAfter - countBefore; grew != rows {
			l.logger.Warnf("Row count verification mismatch for %s: inserted %d but table grew by %d",
				l.cfg.Table, rows, grew)
		} else {
			l.logger.Debugf("Row count verification passed for %s (+%d rows)", l.cfg.Table, rows)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)

	l.logger.Infof("Loaded %d rows into %s in %d batches (%s)",
		result.RowsLoaded, result.Destination, result.Batches, result.Duration.Round(time.Millisecond))

	return result, nil
}

// createTable creates the warehouse table with the dataset's columns.
func (l *Loader) createTable(ctx context.Context, ds *dataset.Dataset) error {
	query := BuildCreateTableSQL(l.cfg.Table, ds)
	l.logger.Infof("Creating warehouse table %s with %d columns", l.cfg.Table, ds.NumColumns())
	l.logger.Debugf("DDL: %s", query)

	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", l.cfg.Table, err)
	}

	return nil
}

// evolveSchema adds dataset columns missing from the warehouse table.
// Evolution is additive only; columns are never dropped or retyped.
func (l *Loader) evolveSchema(ctx context.Context, ds *dataset.Dataset, existing []string) ([]string, error) {
	known := make(map[string]bool, len(existing))
	for _, col := range existing {
		known[col] = true
	}

	var added []string
	for _, col := range ds.Columns() {
		if known[col] {
			continue
		}

		query := BuildAddColumnSQL(l.cfg.Table, col, ds.Column(col))
		l.logger.Infof("Adding column %q to warehouse table %s", col, l.cfg.Table)
		l.logger.Debugf("DDL: %s", query)

		if _, err := l.db.ExecContext(ctx, query); err != nil {
			return added, fmt.Errorf("failed to add column %s: %w", col, err)
		}
		added = append(added, col)
	}

	return added, nil
}

// tableColumns returns the warehouse table's columns in ordinal order, or
// an empty slice when the table does not exist.
func (l *Loader) tableColumns(ctx context.Context) ([]string, error) {
	query := `SELECT COLUMN_NAME
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := l.db.QueryContext(ctx, query, l.cfg.Database, l.cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}

// insertRows writes all dataset rows within a single transaction, batched
// into multi-row INSERT statements.
func (l *Loader) insertRows(ctx context.Context, ds *dataset.Dataset) (int64, int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if tx != nil {
			// Transaction not yet committed - rollback
			l.logger.Warn("Rolling back load transaction due to error or panic")
			if rbErr := tx.Rollback(); rbErr != nil {
				l.logger.Errorf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	columns := ds.Columns()
	numRows := ds.NumRows()

	var rowsLoaded int64
	batches := 0

	for start := 0; start < numRows; start += l.batchSize {
		if err := ctx.Err(); err != nil {
			return rowsLoaded, batches, fmt.Errorf("load interrupted: %w", err)
		}

		end := start + l.batchSize
		if end > numRows {
			end = numRows
		}

		query := BuildInsertSQL(l.cfg.Table, columns, end-start)

		args := make([]any, 0, (end-start)*len(columns))
		for i := start; i < end; i++ {
			args = append(args, ds.Row(i)...)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return rowsLoaded, batches, fmt.Errorf("failed to insert batch %d: %w", batches+1, err)
		}

		affected, _ := res.RowsAffected()
		rowsLoaded += affected
		batches++

		l.logger.Debugf("Inserted batch %d (%d rows)", batches, end-start)
	}

	if err := tx.Commit(); err != nil {
		return rowsLoaded, batches, fmt.Errorf("failed to commit load transaction: %w", err)
	}

	// Mark transaction as committed (prevent defer rollback)
	tx = nil

	return rowsLoaded, batches, nil
}

// countRows returns the current row count of the warehouse table.
func (l *Loader) countRows(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", sqlutil.QuoteIdentifier(l.cfg.Table))

	var count int64
	if err := l.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

func allNull(values []any) bool {
	for _, v := range values {
		if !dataset.IsNull(v) {
			return false
		}
	}
	return len(values) > 0
}
