// Package quality profiles datasets for nulls, duplicates, outliers and
// inconsistent date formats, and scores what it finds.
package quality

import (
	"strings"

	"github.com/dbsmedya/gopipeline/internal/dataset"
	"github.com/dbsmedya/gopipeline/internal/logger"
)

// OutlierThreshold is the amount above which a value counts as an outlier.
const OutlierThreshold = 10000

// dateSampleSize caps how many values the date format check inspects.
const dateSampleSize = 20

// monthAbbrevs are the capitalized month tokens the format check looks for.
var monthAbbrevs = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// Checker profiles datasets against the configured column conventions.
type Checker struct {
	keyColumn    string
	amountColumn string
	dateColumn   string
	logger       *logger.Logger
}

// NewChecker creates a checker keyed on the given columns.
func NewChecker(keyColumn, amountColumn, dateColumn string, log *logger.Logger) *Checker {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Checker{
		keyColumn:    keyColumn,
		amountColumn: amountColumn,
		dateColumn:   dateColumn,
		logger:       log,
	}
}

// Check profiles the dataset and returns a scored report.
func (c *Checker) Check(ds *dataset.Dataset) *Report {
	issues := c.Detect(ds)
	score := Score(issues)

	c.logger.Infof("Quality check: score %d/100, %d issues in %d rows", score, len(issues), ds.NumRows())

	return &Report{
		Score:          score,
		Issues:         issues,
		Recommendation: Recommendation(score),
	}
}

// Detect runs all checks and returns issues in a fixed order:
// nulls per column, then duplicates, outliers, and date formats.
func (c *Checker) Detect(ds *dataset.Dataset) []Issue {
	var issues []Issue
	issues = append(issues, c.detectNulls(ds)...)
	issues = append(issues, c.detectDuplicates(ds)...)
	issues = append(issues, c.detectOutliers(ds)...)
	issues = append(issues, c.detectDateFormats(ds)...)
	return issues
}

// detectNulls reports a per-column issue for every column containing nulls.
func (c *Checker) detectNulls(ds *dataset.Dataset) []Issue {
	var issues []Issue
	rows := ds.NumRows()

	for _, col := range ds.Columns() {
		count := 0
		for _, v := range ds.Column(col) {
			if dataset.IsNull(v) {
				count++
			}
		}
		if count > 0 {
			issues = append(issues, Issue{
				Kind:       KindNulls,
				Column:     col,
				Count:      count,
				Percentage: dataset.Percentage(count, rows),
			})
		}
	}

	return issues
}

// detectDuplicates counts repeated key values when the key column exists,
// otherwise exact repeated rows. The first occurrence is never counted and
// null keys compare equal to each other.
func (c *Checker) detectDuplicates(ds *dataset.Dataset) []Issue {
	rows := ds.NumRows()

	if idx, ok := ds.ColumnIndex(c.keyColumn); ok {
		seen := make(map[any]bool, rows)
		count := 0
		for i := 0; i < rows; i++ {
			key := ds.Row(i)[idx]
			if seen[key] {
				count++
			} else {
				seen[key] = true
			}
		}
		if count > 0 {
			return []Issue{{
				Kind:       KindDuplicateKey,
				Column:     c.keyColumn,
				Count:      count,
				Percentage: dataset.Percentage(count, rows),
			}}
		}
		return nil
	}

	seen := make(map[string]bool, rows)
	count := 0
	for i := 0; i < rows; i++ {
		sig := dataset.RowSignature(ds.Row(i))
		if seen[sig] {
			count++
		} else {
			seen[sig] = true
		}
	}
	if count > 0 {
		return []Issue{{
			Kind:       KindDuplicates,
			Count:      count,
			Percentage: dataset.Percentage(count, rows),
		}}
	}
	return nil
}

// detectOutliers counts amount values strictly above the threshold.
// Nulls and non-numeric values are ignored.
func (c *Checker) detectOutliers(ds *dataset.Dataset) []Issue {
	idx, ok := ds.ColumnIndex(c.amountColumn)
	if !ok {
		return nil
	}

	rows := ds.NumRows()
	count := 0
	for i := 0; i < rows; i++ {
		if n, ok := dataset.ToFloat64(ds.Row(i)[idx]); ok && n > OutlierThreshold {
			count++
		}
	}
	if count == 0 {
		return nil
	}

	return []Issue{{
		Kind:       KindOutliers,
		Column:     c.amountColumn,
		Count:      count,
		Percentage: dataset.Percentage(count, rows),
		Threshold:  OutlierThreshold,
	}}
}

// detectDateFormats samples the first values of the date column and reports
// when more than one format style shows up. ISO dates are deliberately not
// classified, so an all-ISO column never triggers the issue.
func (c *Checker) detectDateFormats(ds *dataset.Dataset) []Issue {
	idx, ok := ds.ColumnIndex(c.dateColumn)
	if !ok {
		return nil
	}

	sample := make([]string, 0, dateSampleSize)
	for i := 0; i < ds.NumRows() && len(sample) < dateSampleSize; i++ {
		v := ds.Row(i)[idx]
		if dataset.IsNull(v) {
			continue
		}
		s, _ := dataset.ToString(v)
		sample = append(sample, s)
	}

	var formats []string
	seen := make(map[string]bool)
	for _, s := range sample {
		f := classifyDateFormat(s)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		formats = append(formats, f)
	}

	if len(formats) < 2 {
		return nil
	}

	return []Issue{{
		Kind:    KindInconsistentDates,
		Column:  c.dateColumn,
		Formats: formats,
		Count:   len(sample),
	}}
}

// classifyDateFormat labels a raw date string by its surface shape.
// Returns "" for shapes it does not recognize.
func classifyDateFormat(s string) string {
	if strings.Contains(s, "/") {
		return FormatSlash
	}
	if strings.Contains(s, "-") {
		first := strings.SplitN(s, "-", 2)[0]
		if len(first) == 2 && isDigits(first) {
			return FormatDayFirst
		}
	}
	for _, m := range monthAbbrevs {
		if strings.Contains(s, m) {
			return FormatTextMonth
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
