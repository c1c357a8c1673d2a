package loader

import (
	"fmt"
	"math"
	"strings"

	"github.com/dbsmedya/gopipeline/internal/dataset"
	"github.com/dbsmedya/gopipeline/internal/sqlutil"
)

// ColumnType returns the MySQL column type for a dataset column. Numeric
// columns whose values are all integral become BIGINT, other numeric
// columns DOUBLE, date columns DATE, everything else VARCHAR(255).
func ColumnType(values []any) string {
	switch dataset.InferColumnType(values) {
	case dataset.TypeNumeric:
		if allIntegral(values) {
			return "BIGINT"
		}
		return "DOUBLE"
	case dataset.TypeDate:
		return "DATE"
	default:
		return "VARCHAR(255)"
	}
}

func allIntegral(values []any) bool {
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		f, ok := dataset.ToFloat64(v)
		if !ok || f != math.Trunc(f) {
			return false
		}
	}
	return true
}

// BuildCreateTableSQL constructs a CREATE TABLE IF NOT EXISTS statement
// with one nullable column per dataset column.
// Example: CREATE TABLE IF NOT EXISTS `sales_data` (`order_id` BIGINT NULL, ...)
func BuildCreateTableSQL(table string, ds *dataset.Dataset) string {
	defs := make([]string, 0, ds.NumColumns())
	for _, col := range ds.Columns() {
		defs = append(defs, fmt.Sprintf("%s %s NULL",
			sqlutil.QuoteIdentifier(col), ColumnType(ds.Column(col))))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		sqlutil.QuoteIdentifier(table), strings.Join(defs, ", "))
}

// BuildAddColumnSQL constructs an ALTER TABLE statement that adds one
// nullable column. Schema evolution is additive only.
func BuildAddColumnSQL(table, column string, values []any) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s NULL",
		sqlutil.QuoteIdentifier(table), sqlutil.QuoteIdentifier(column), ColumnType(values))
}

// BuildInsertSQL constructs a multi-row INSERT statement with placeholder
// groups for rowCount rows.
// Example: INSERT INTO `sales_data` (`order_id`, `amount`) VALUES (?, ?), (?, ?)
func BuildInsertSQL(table string, columns []string, rowCount int) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = sqlutil.QuoteIdentifier(col)
		placeholders[i] = "?"
	}

	group := "(" + strings.Join(placeholders, ", ") + ")"
	groups := make([]string, rowCount)
	for i := range groups {
		groups[i] = group
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		sqlutil.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(groups, ", "))
}
