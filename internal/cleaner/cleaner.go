// Package cleaner repairs the problems the quality stage flags: duplicate
// rows, mixed date formats, outlier and null amounts, and residual nulls
// in text columns.
package cleaner

import (
	"fmt"

	"github.com/dbsmedya/gopipeline/internal/dataset"
	"github.com/dbsmedya/gopipeline/internal/logger"
	"github.com/dbsmedya/gopipeline/internal/quality"
)

// CapValue is what outlier amounts are rewritten to.
const CapValue = 1000

// FillUnknown is the placeholder written into residual text nulls.
const FillUnknown = "Unknown"

// Report summarizes one cleaning pass.
type Report struct {
	RowsIn       int      `json:"rows_in"`
	RowsOut      int      `json:"rows_out"`
	RowsRemoved  int      `json:"rows_removed"`
	FixesApplied []string `json:"fixes_applied"`
	Efficiency   float64  `json:"cleaning_efficiency"`
}

// Cleaner applies the fixed repair sequence to a dataset.
type Cleaner struct {
	keyColumn    string
	amountColumn string
	dateColumn   string
	logger       *logger.Logger
}

// New creates a cleaner keyed on the given columns.
func New(keyColumn, amountColumn, dateColumn string, log *logger.Logger) *Cleaner {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Cleaner{
		keyColumn:    keyColumn,
		amountColumn: amountColumn,
		dateColumn:   dateColumn,
		logger:       log,
	}
}

// Clean returns a repaired copy of the dataset and a report of what
// changed. The input dataset is never modified. Fixes are recorded only
// when a step actually changed something, so cleaning already-clean data
// reports zero fixes.
func (c *Cleaner) Clean(ds *dataset.Dataset) (*dataset.Dataset, *Report) {
	out := ds.Clone()
	rowsIn := out.NumRows()
	fixes := []string{}

	fixes = append(fixes, c.dedupe(out)...)
	fixes = append(fixes, c.normalizeDates(out)...)
	fixes = append(fixes, c.repairAmounts(out)...)
	fixes = append(fixes, c.fillResidualNulls(out)...)

	rowsOut := out.NumRows()
	report := &Report{
		RowsIn:       rowsIn,
		RowsOut:      rowsOut,
		RowsRemoved:  rowsIn - rowsOut,
		FixesApplied: fixes,
		Efficiency:   dataset.Percentage(rowsOut, rowsIn),
	}

	c.logger.Infof("Transform complete: %d -> %d rows (%d removed), %d fixes applied",
		rowsIn, rowsOut, report.RowsRemoved, len(fixes))

	return out, report
}

// dedupe removes duplicate rows. With a key column, rows are first sorted
// by amount descending with null amounts last so the row carrying data
// survives; the sorted order persists in the output. Null keys form one
// group. Without a key column, exact duplicate rows are dropped and the
// original order is kept.
func (c *Cleaner) dedupe(ds *dataset.Dataset) []string {
	before := ds.NumRows()

	if keyIdx, ok := ds.ColumnIndex(c.keyColumn); ok {
		if amountIdx, ok := ds.ColumnIndex(c.amountColumn); ok {
			ds.SortStable(func(a, b []any) bool {
				fa, oka := dataset.ToFloat64(a[amountIdx])
				fb, okb := dataset.ToFloat64(b[amountIdx])
				if oka && okb {
					return fa > fb
				}
				return oka && !okb
			})
		}

		seen := make(map[any]bool, before)
		ds.Filter(func(row []any) bool {
			if seen[row[keyIdx]] {
				return false
			}
			seen[row[keyIdx]] = true
			return true
		})

		if removed := before - ds.NumRows(); removed > 0 {
			c.logger.Infof("Removed %d duplicate orders", removed)
			return []string{fmt.Sprintf("Removed %d duplicate orders (kept rows with more data)", removed)}
		}
		return nil
	}

	seen := make(map[string]bool, before)
	ds.Filter(func(row []any) bool {
		sig := dataset.RowSignature(row)
		if seen[sig] {
			return false
		}
		seen[sig] = true
		return true
	})

	if removed := before - ds.NumRows(); removed > 0 {
		c.logger.Infof("Removed %d duplicate records", removed)
		return []string{fmt.Sprintf("Removed %d duplicate records", removed)}
	}
	return nil
}

// normalizeDates rewrites every parsable date value as YYYY-MM-DD.
// Unparsable values become explicit nulls, never a literal placeholder.
func (c *Cleaner) normalizeDates(ds *dataset.Dataset) []string {
	idx, ok := ds.ColumnIndex(c.dateColumn)
	if !ok {
		return nil
	}

	changed := 0
	for i := 0; i < ds.NumRows(); i++ {
		v := ds.Row(i)[idx]
		if dataset.IsNull(v) {
			continue
		}
		s, _ := dataset.ToString(v)
		parsed, ok := dataset.ParseDate(s)
		if !ok {
			ds.Row(i)[idx] = nil
			changed++
			continue
		}
		formatted := parsed.Format(dataset.DateLayout)
		if formatted != s {
			ds.Row(i)[idx] = formatted
			changed++
		}
	}

	if changed > 0 {
		c.logger.Infof("Standardized %d date values", changed)
		return []string{"Standardized date formats to YYYY-MM-DD"}
	}
	return nil
}

// repairAmounts coerces the amount column to numeric, caps outliers at
// CapValue, and fills nulls and unparsable values with 0.
func (c *Cleaner) repairAmounts(ds *dataset.Dataset) []string {
	idx, ok := ds.ColumnIndex(c.amountColumn)
	if !ok {
		return nil
	}

	capped := 0
	filled := 0
	for i := 0; i < ds.NumRows(); i++ {
		n, numeric := dataset.ToFloat64(ds.Row(i)[idx])
		switch {
		case !numeric:
			ds.Row(i)[idx] = float64(0)
			filled++
		case n > quality.OutlierThreshold:
			ds.Row(i)[idx] = float64(CapValue)
			capped++
		default:
			ds.Row(i)[idx] = n
		}
	}

	var fixes []string
	if capped > 0 {
		fixes = append(fixes, fmt.Sprintf("Capped %d outliers (>%d -> %d)", capped, quality.OutlierThreshold, CapValue))
	}
	if filled > 0 {
		fixes = append(fixes, fmt.Sprintf("Filled %d null amounts with 0", filled))
	}
	if capped > 0 || filled > 0 {
		c.logger.Infof("Amounts repaired: %d capped, %d filled", capped, filled)
	}
	return fixes
}

// fillResidualNulls replaces nulls in the remaining text columns with a
// placeholder. The amount and date columns are left alone; numeric and
// date-typed columns are never touched.
func (c *Cleaner) fillResidualNulls(ds *dataset.Dataset) []string {
	var fixes []string

	for _, col := range ds.Columns() {
		if col == c.amountColumn || col == c.dateColumn {
			continue
		}
		if dataset.InferColumnType(ds.Column(col)) != dataset.TypeText {
			continue
		}

		idx, _ := ds.ColumnIndex(col)
		filled := 0
		for i := 0; i < ds.NumRows(); i++ {
			if dataset.IsNull(ds.Row(i)[idx]) {
				ds.Row(i)[idx] = FillUnknown
				filled++
			}
		}
		if filled > 0 {
			fixes = append(fixes, fmt.Sprintf("Filled nulls in %s with 'Unknown'", col))
		}
	}

	return fixes
}
