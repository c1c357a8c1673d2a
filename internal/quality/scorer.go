package quality

// ProceedThreshold is the minimum score for a PROCEED recommendation.
const ProceedThreshold = 60

// Penalty weights per issue category.
const (
	nullPenalty    = 5  // per column with nulls
	dupPenalty     = 10 // flat, any duplicates at all
	outlierPenalty = 8  // per column with outliers
	datePenalty    = 7  // per date format issue
)

// Report is the scored result of a quality pass.
type Report struct {
	Score          int     `json:"quality_score"`
	Issues         []Issue `json:"issues"`
	Assessment     string  `json:"assessment,omitempty"`
	Recommendation string  `json:"recommendation"`
}

// Score computes the deterministic quality score for a set of issues.
// Starts at 100 and subtracts weighted penalties, clamped at 0.
func Score(issues []Issue) int {
	nullCols := 0
	outlierCols := 0
	dateIssues := 0
	hasDups := false

	for _, issue := range issues {
		switch issue.Kind {
		case KindNulls:
			nullCols++
		case KindDuplicateKey, KindDuplicates:
			if issue.Count > 0 {
				hasDups = true
			}
		case KindOutliers:
			outlierCols++
		case KindInconsistentDates:
			dateIssues++
		}
	}

	score := 100 - nullCols*nullPenalty - outlierCols*outlierPenalty - dateIssues*datePenalty
	if hasDups {
		score -= dupPenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Recommendation maps a score to PROCEED or ABORT.
func Recommendation(score int) string {
	if score >= ProceedThreshold {
		return "PROCEED"
	}
	return "ABORT"
}
