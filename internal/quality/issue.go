package quality

// Issue kinds emitted by the detector.
const (
	KindNulls             = "nulls"
	KindDuplicateKey      = "duplicate_key"
	KindDuplicates        = "duplicates"
	KindOutliers          = "outliers"
	KindInconsistentDates = "inconsistent_date_format"
)

// Date format labels reported by the format check.
const (
	FormatSlash     = "slash_format"
	FormatDayFirst  = "day_first_format"
	FormatTextMonth = "text_month_format"
)

// Issue describes a single data quality problem found in a dataset.
type Issue struct {
	Kind       string   `json:"type"`
	Column     string   `json:"column,omitempty"`
	Count      int      `json:"count,omitempty"`
	Percentage float64  `json:"percentage,omitempty"`
	Threshold  float64  `json:"threshold,omitempty"`
	Formats    []string `json:"formats_found,omitempty"`
}
