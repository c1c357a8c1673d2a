// Package report renders pipeline run results for terminal display and
// writes the machine-readable JSON report file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/gopipeline/internal/pipeline"
)

const minFileColumn = 4 // width of the "File" header

// PrintOutcome writes the detailed per-file section for one outcome.
func PrintOutcome(w io.Writer, oc *pipeline.FileOutcome) {
	fmt.Fprintf(w, "\n%s %s\n", statusColor(oc.Status).Sprint(oc.Status), oc.File)

	switch oc.Status {
	case pipeline.StatusSuccess:
		fmt.Fprintf(w, "   Quality Score: %d/100\n", oc.Score)
		fmt.Fprintf(w, "   Rows Loaded:   %d\n", oc.RowsLoaded)
		fmt.Fprintf(w, "   Transformed:   %s\n", yesNo(oc.TransformationApplied))
		if oc.SchemaUpdated {
			fmt.Fprintf(w, "   Schema Updated: yes (new columns: %v)\n", oc.NewColumns)
		}
		fmt.Fprintf(w, "   Destination:   %s\n", oc.Destination)
	case pipeline.StatusAborted:
		fmt.Fprintf(w, "   Quality Score: %d/100\n", oc.Score)
		fmt.Fprintf(w, "   Reason:        %s\n", oc.Reason)
		fmt.Fprintf(w, "   Issues:        %d detected\n", len(oc.Issues))
	case pipeline.StatusFailed:
		fmt.Fprintf(w, "   Error: %s\n", oc.Error)
	}
}

// PrintSummary writes the run summary: aggregate counts followed by an
// aligned per-file table. Column widths are computed on the plain text so
// the color escape codes do not break the alignment.
func PrintSummary(w io.Writer, s *pipeline.RunSummary) {
	fmt.Fprintf(w, "\n=== Pipeline Run Summary ===\n\n")
	fmt.Fprintf(w, "Run ID:   %s\n", s.RunID)
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Files processed: %d\n", s.Files)
	fmt.Fprintf(w, "  %s: %d\n", color.Green.Sprint("SUCCESS"), s.Succeeded)
	fmt.Fprintf(w, "  %s: %d\n", color.Yellow.Sprint("ABORTED"), s.Aborted)
	fmt.Fprintf(w, "  %s:  %d\n", color.Red.Sprint("FAILED"), s.Failed)
	fmt.Fprintf(w, "Rows loaded: %d\n", s.RowsLoaded)

	if len(s.Outcomes) == 0 {
		return
	}

	fileWidth := minFileColumn
	for _, oc := range s.Outcomes {
		if fw := runewidth.StringWidth(oc.File); fw > fileWidth {
			fileWidth = fw
		}
	}

	fmt.Fprintf(w, "\n%s  %s  %s  %s\n",
		runewidth.FillRight("File", fileWidth),
		runewidth.FillRight("Status", 7),
		runewidth.FillRight("Score", 5),
		"Detail")

	for _, oc := range s.Outcomes {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			runewidth.FillRight(oc.File, fileWidth),
			statusColor(oc.Status).Sprint(runewidth.FillRight(oc.Status, 7)),
			runewidth.FillRight(scoreCell(oc), 5),
			detailCell(oc))
	}
}

// WriteJSON writes the full run report to path as indented JSON.
func WriteJSON(path string, s *pipeline.RunSummary) error {
	doc := struct {
		RunID           string                  `json:"run_id"`
		GeneratedAt     time.Time               `json:"generated_at"`
		DurationSeconds float64                 `json:"duration_seconds"`
		Files           int                     `json:"files"`
		Succeeded       int                     `json:"succeeded"`
		Aborted         int                     `json:"aborted"`
		Failed          int                     `json:"failed"`
		RowsLoaded      int64                   `json:"rows_loaded"`
		Results         []*pipeline.FileOutcome `json:"results"`
	}{
		RunID:           s.RunID,
		GeneratedAt:     time.Now().UTC(),
		DurationSeconds: s.Duration.Seconds(),
		Files:           s.Files,
		Succeeded:       s.Succeeded,
		Aborted:         s.Aborted,
		Failed:          s.Failed,
		RowsLoaded:      s.RowsLoaded,
		Results:         s.Outcomes,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}

	return nil
}

func statusColor(status string) color.Color {
	switch status {
	case pipeline.StatusSuccess:
		return color.Green
	case pipeline.StatusAborted:
		return color.Yellow
	case pipeline.StatusFailed:
		return color.Red
	default:
		return color.Normal
	}
}

func scoreCell(oc *pipeline.FileOutcome) string {
	if oc.Status == pipeline.StatusFailed {
		return "-"
	}
	return fmt.Sprintf("%d", oc.Score)
}

func detailCell(oc *pipeline.FileOutcome) string {
	switch oc.Status {
	case pipeline.StatusSuccess:
		detail := fmt.Sprintf("%d rows -> %s", oc.RowsLoaded, oc.Destination)
		if oc.TransformationApplied {
			detail += " (cleaned)"
		}
		return detail
	case pipeline.StatusAborted:
		return oc.Reason
	case pipeline.StatusFailed:
		return oc.Error
	default:
		return ""
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
