package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gopipeline/internal/pipeline"
	"github.com/dbsmedya/gopipeline/internal/quality"
)

func TestMain(m *testing.M) {
	// Plain output so assertions see the text without escape codes.
	color.Disable()
	os.Exit(m.Run())
}

func successOutcome() *pipeline.FileOutcome {
	return &pipeline.FileOutcome{
		File:           "day1_clean.csv",
		Status:         pipeline.StatusSuccess,
		Score:          100,
		IssuesDetected: 0,
		RowsLoaded:     4,
		Destination:    "mysql://warehouse.sales_data",
	}
}

func abortedOutcome() *pipeline.FileOutcome {
	return &pipeline.FileOutcome{
		File:   "day4_bad.csv",
		Status: pipeline.StatusAborted,
		Score:  52,
		Reason: "Quality score 52 below threshold",
		Issues: []quality.Issue{
			{Kind: quality.KindNulls, Column: "customer", Count: 2},
			{Kind: quality.KindDuplicateKey, Column: "order_id", Count: 1},
		},
		IssuesDetected: 2,
	}
}

func failedOutcome() *pipeline.FileOutcome {
	return &pipeline.FileOutcome{
		File:   "day9_broken.csv",
		Status: pipeline.StatusFailed,
		Error:  "ingest failed: record on line 3: wrong number of fields",
	}
}

func TestPrintOutcome_Success(t *testing.T) {
	var buf bytes.Buffer
	PrintOutcome(&buf, successOutcome())

	out := buf.String()
	assert.Contains(t, out, "SUCCESS")
	assert.Contains(t, out, "day1_clean.csv")
	assert.Contains(t, out, "Quality Score: 100/100")
	assert.Contains(t, out, "Transformed:   no")
	assert.Contains(t, out, "mysql://warehouse.sales_data")
	assert.NotContains(t, out, "Schema Updated")
	assert.NotContains(t, out, "Reason")
}

func TestPrintOutcome_SuccessWithSchemaChange(t *testing.T) {
	oc := successOutcome()
	oc.File = "day3_schema_change.csv"
	oc.TransformationApplied = true
	oc.SchemaUpdated = true
	oc.NewColumns = []string{"discount_code", "sales_channel"}

	var buf bytes.Buffer
	PrintOutcome(&buf, oc)

	out := buf.String()
	assert.Contains(t, out, "Transformed:   yes")
	assert.Contains(t, out, "Schema Updated: yes")
	assert.Contains(t, out, "discount_code")
	assert.Contains(t, out, "sales_channel")
}

func TestPrintOutcome_Aborted(t *testing.T) {
	var buf bytes.Buffer
	PrintOutcome(&buf, abortedOutcome())

	out := buf.String()
	assert.Contains(t, out, "ABORTED")
	assert.Contains(t, out, "day4_bad.csv")
	assert.Contains(t, out, "Quality Score: 52/100")
	assert.Contains(t, out, "Quality score 52 below threshold")
	assert.Contains(t, out, "2 detected")
	assert.NotContains(t, out, "Rows Loaded")
}

func TestPrintOutcome_Failed(t *testing.T) {
	var buf bytes.Buffer
	PrintOutcome(&buf, failedOutcome())

	out := buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "day9_broken.csv")
	assert.Contains(t, out, "wrong number of fields")
	assert.NotContains(t, out, "Quality Score")
}

func TestPrintSummary(t *testing.T) {
	s := &pipeline.RunSummary{
		RunID:      "a3f0c1d2-0000-4000-8000-000000000000",
		StartedAt:  time.Now(),
		Duration:   1234 * time.Millisecond,
		Files:      3,
		Succeeded:  1,
		Aborted:    1,
		Failed:     1,
		RowsLoaded: 4,
		Outcomes: []*pipeline.FileOutcome{
			successOutcome(),
			abortedOutcome(),
			failedOutcome(),
		},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, s)

	out := buf.String()
	assert.Contains(t, out, "=== Pipeline Run Summary ===")
	assert.Contains(t, out, "a3f0c1d2-0000-4000-8000-000000000000")
	assert.Contains(t, out, "Files processed: 3")
	assert.Contains(t, out, "SUCCESS: 1")
	assert.Contains(t, out, "ABORTED: 1")
	assert.Contains(t, out, "FAILED:  1")
	assert.Contains(t, out, "Rows loaded: 4")

	// Table rows: one per outcome, file column padded to the longest name.
	assert.Contains(t, out, "day1_clean.csv   SUCCESS")
	assert.Contains(t, out, "day4_bad.csv     ABORTED")
	assert.Contains(t, out, "day9_broken.csv  FAILED")
	assert.Contains(t, out, "4 rows -> mysql://warehouse.sales_data")
}

func TestPrintSummary_CleanedFileMarked(t *testing.T) {
	oc := successOutcome()
	oc.File = "day2_messy.csv"
	oc.Score = 65
	oc.TransformationApplied = true

	s := &pipeline.RunSummary{
		RunID:      "run-1",
		Files:      1,
		Succeeded:  1,
		RowsLoaded: 4,
		Outcomes:   []*pipeline.FileOutcome{oc},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, s)

	assert.Contains(t, buf.String(), "(cleaned)")
}

func TestPrintSummary_NoOutcomes(t *testing.T) {
	s := &pipeline.RunSummary{RunID: "empty-run", Files: 0}

	var buf bytes.Buffer
	PrintSummary(&buf, s)

	out := buf.String()
	assert.Contains(t, out, "Files processed: 0")
	assert.NotContains(t, out, "File ")
}

func TestWriteJSON(t *testing.T) {
	s := &pipeline.RunSummary{
		RunID:      "json-run",
		Duration:   2 * time.Second,
		Files:      3,
		Succeeded:  1,
		Aborted:    1,
		Failed:     1,
		RowsLoaded: 4,
		Outcomes: []*pipeline.FileOutcome{
			successOutcome(),
			abortedOutcome(),
			failedOutcome(),
		},
	}

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "json-run", doc["run_id"])
	assert.Equal(t, float64(2), doc["duration_seconds"])
	assert.Equal(t, float64(3), doc["files"])
	assert.Equal(t, float64(1), doc["succeeded"])
	assert.Equal(t, float64(1), doc["aborted"])
	assert.Equal(t, float64(1), doc["failed"])
	assert.Equal(t, float64(4), doc["rows_loaded"])
	assert.NotEmpty(t, doc["generated_at"])

	results, ok := doc["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)

	// SUCCESS carries load fields, no failure fields.
	success := results[0].(map[string]any)
	assert.Equal(t, "SUCCESS", success["status"])
	assert.Equal(t, float64(100), success["quality_score"])
	assert.Equal(t, float64(4), success["rows_loaded"])
	assert.Equal(t, "mysql://warehouse.sales_data", success["destination"])
	assert.NotContains(t, success, "reason")
	assert.NotContains(t, success, "error")

	// ABORTED carries the reason and issue list, no load fields.
	aborted := results[1].(map[string]any)
	assert.Equal(t, "ABORTED", aborted["status"])
	assert.Equal(t, float64(52), aborted["quality_score"])
	assert.Equal(t, "Quality score 52 below threshold", aborted["reason"])
	issues, ok := aborted["issues"].([]any)
	require.True(t, ok)
	assert.Len(t, issues, 2)
	assert.NotContains(t, aborted, "rows_loaded")
	assert.NotContains(t, aborted, "destination")

	// FAILED carries only the error.
	failed := results[2].(map[string]any)
	assert.Equal(t, "FAILED", failed["status"])
	assert.Contains(t, failed["error"], "wrong number of fields")
	assert.NotContains(t, failed, "quality_score")
	assert.NotContains(t, failed, "reason")
	assert.NotContains(t, failed, "rows_loaded")
}

func TestWriteJSON_BadPath(t *testing.T) {
	s := &pipeline.RunSummary{RunID: "r"}

	err := WriteJSON(filepath.Join(t.TempDir(), "missing", "report.json"), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report")
}
