// Package dataset contains the tabular container shared across pipeline
// stages to avoid import cycles.
package dataset

import (
	"fmt"
	"sort"

	"github.com/elliotchance/orderedmap/v2"
)

// Dataset is an ordered, mutable table of named columns. Column order is
// insertion order; row order is insertion order and is significant for
// dedupe tie-breaking. A nil value represents a null cell.
type Dataset struct {
	columns *orderedmap.OrderedMap[string, int]
	rows    [][]any
}

// New creates an empty Dataset with the given columns.
// Column names must be unique and non-empty.
func New(columns []string) (*Dataset, error) {
	cols := orderedmap.NewOrderedMap[string, int]()
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, exists := cols.Get(name); exists {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		cols.Set(name, i)
	}
	return &Dataset{columns: cols}, nil
}

// Columns returns the column names in insertion order.
func (d *Dataset) Columns() []string {
	return d.columns.Keys()
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	return d.columns.Len()
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	return len(d.rows)
}

// HasColumn reports whether a column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns.Get(name)
	return ok
}

// ColumnIndex returns the position of a column, for hot loops that index
// rows directly.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	return d.columns.Get(name)
}

// AddColumn appends a new column; existing rows are padded with nulls.
func (d *Dataset) AddColumn(name string) error {
	if name == "" {
		return fmt.Errorf("column name is empty")
	}
	if _, exists := d.columns.Get(name); exists {
		return fmt.Errorf("duplicate column name %q", name)
	}
	d.columns.Set(name, d.columns.Len())
	for i := range d.rows {
		d.rows[i] = append(d.rows[i], nil)
	}
	return nil
}

// AppendRow adds a row. The value count must match the column count.
func (d *Dataset) AppendRow(values []any) error {
	if len(values) != d.columns.Len() {
		return fmt.Errorf("row has %d values, dataset has %d columns", len(values), d.columns.Len())
	}
	row := make([]any, len(values))
	copy(row, values)
	d.rows = append(d.rows, row)
	return nil
}

// Row returns the underlying slice for a row. Mutations write through.
func (d *Dataset) Row(i int) []any {
	return d.rows[i]
}

// Value returns the cell at (row, column).
func (d *Dataset) Value(row int, column string) (any, bool) {
	idx, ok := d.columns.Get(column)
	if !ok || row < 0 || row >= len(d.rows) {
		return nil, false
	}
	return d.rows[row][idx], true
}

// SetValue writes the cell at (row, column). Returns false if the column
// does not exist or the row is out of range.
func (d *Dataset) SetValue(row int, column string, v any) bool {
	idx, ok := d.columns.Get(column)
	if !ok || row < 0 || row >= len(d.rows) {
		return false
	}
	d.rows[row][idx] = v
	return true
}

// Column returns a copy of all values in a column, in row order.
func (d *Dataset) Column(name string) []any {
	idx, ok := d.columns.Get(name)
	if !ok {
		return nil
	}
	values := make([]any, len(d.rows))
	for i, row := range d.rows {
		values[i] = row[idx]
	}
	return values
}

// Filter keeps only rows for which keep returns true, preserving order.
// keep is called once per row, in row order.
func (d *Dataset) Filter(keep func(row []any) bool) {
	kept := d.rows[:0]
	for _, row := range d.rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	for i := len(kept); i < len(d.rows); i++ {
		d.rows[i] = nil
	}
	d.rows = kept
}

// SortStable reorders rows in place with a stable sort.
func (d *Dataset) SortStable(less func(a, b []any) bool) {
	sort.SliceStable(d.rows, func(i, j int) bool {
		return less(d.rows[i], d.rows[j])
	})
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	clone := &Dataset{columns: d.columns.Copy()}
	clone.rows = make([][]any, len(d.rows))
	for i, row := range d.rows {
		clone.rows[i] = make([]any, len(row))
		copy(clone.rows[i], row)
	}
	return clone
}
