package pipeline

import (
	"time"

	"github.com/dbsmedya/gopipeline/internal/quality"
)

// Terminal statuses of a single file's journey through the pipeline.
const (
	StatusSuccess = "SUCCESS"
	StatusAborted = "ABORTED"
	StatusFailed  = "FAILED"
)

// Stage names used by the retry executor and structured logs.
const (
	StageIngest    = "ingest"
	StageQuality   = "quality"
	StageTransform = "transform"
	StageLoad      = "load"
)

// FileOutcome is the terminal report for one file. The orchestrator is its
// only writer: the outcome is created at pipeline entry, populated stage by
// stage and finalized exactly once. The omitempty tags shape the JSON into
// the three report variants (SUCCESS, ABORTED, FAILED) from a single
// struct.
type FileOutcome struct {
	File                  string          `json:"file"`
	Status                string          `json:"status"`
	Score                 int             `json:"quality_score,omitempty"`
	IssuesDetected        int             `json:"issues_detected,omitempty"`
	TransformationApplied bool            `json:"transformation_applied,omitempty"`
	RowsLoaded            int64           `json:"rows_loaded,omitempty"`
	SchemaUpdated         bool            `json:"schema_updated,omitempty"`
	NewColumns            []string        `json:"new_columns,omitempty"`
	Destination           string          `json:"destination,omitempty"`
	Reason                string          `json:"reason,omitempty"`
	Issues                []quality.Issue `json:"issues,omitempty"`
	Error                 string          `json:"error,omitempty"`
	Duration              time.Duration   `json:"-"`
}

// RunSummary aggregates the outcomes of one pipeline run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Files      int
	Succeeded  int
	Aborted    int
	Failed     int
	RowsLoaded int64
	Outcomes   []*FileOutcome
}

// HasFailures reports whether any file ended FAILED. Quality aborts are
// first-class outcomes, not failures.
func (s *RunSummary) HasFailures() bool {
	return s.Failed > 0
}
