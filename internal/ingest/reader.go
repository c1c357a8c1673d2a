// Package ingest reads source files into datasets, detecting the format
// and tracking schema drift across files.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbsmedya/gopipeline/internal/advisor"
	"github.com/dbsmedya/gopipeline/internal/dataset"
	"github.com/dbsmedya/gopipeline/internal/logger"
)

// Supported source formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// formatPreviewBytes is how much file content the advisor sees when asked
// for a format hint.
const formatPreviewBytes = 500

const formatQuestion = "What is the most likely format of this data file (CSV or JSON)? Consider the file extension and content structure."

const schemaQuestion = `Analyze these schemas:
1. Has the schema changed?
2. What are the new columns (if any)?
3. What are the implications for downstream processing?
4. Should we be concerned about any changes?`

// Metadata describes one ingested file.
type Metadata struct {
	Format          string            `json:"format"`
	Rows            int               `json:"rows"`
	Schema          []string          `json:"schema"`
	SchemaChanged   bool              `json:"schema_changed"`
	NewColumns      []string          `json:"new_columns"`
	DataTypes       map[string]string `json:"data_types"`
	AdvisorAnalysis string            `json:"advisor_analysis,omitempty"`
}

// Reader ingests source files. The advisor client is optional; with a nil
// client format detection falls back to the file extension.
type Reader struct {
	advisor advisor.Client
	tracker *SchemaTracker
	logger  *logger.Logger
}

// NewReader creates a reader. The tracker must not be nil.
func NewReader(client advisor.Client, tracker *SchemaTracker, log *logger.Logger) (*Reader, error) {
	if tracker == nil {
		return nil, fmt.Errorf("schema tracker is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Reader{
		advisor: client,
		tracker: tracker,
		logger:  log,
	}, nil
}

// Ingest reads and parses one source file.
func (r *Reader) Ingest(ctx context.Context, path string) (*dataset.Dataset, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	format := r.detectFormat(ctx, path, content)

	var ds *dataset.Dataset
	switch format {
	case FormatCSV:
		ds, err = parseCSV(content)
	default:
		ds, err = parseJSON(content)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s as %s: %w", path, format, err)
	}

	schema := ds.Columns()
	changed, newCols := r.tracker.Observe(schema)

	md := &Metadata{
		Format:        format,
		Rows:          ds.NumRows(),
		Schema:        schema,
		SchemaChanged: changed,
		NewColumns:    newCols,
		DataTypes:     columnTypes(ds),
	}

	if changed {
		r.logger.Warnf("Schema change detected in %s: new columns %v", filepath.Base(path), newCols)
		md.AdvisorAnalysis = r.analyzeSchemaChange(ctx, md)
	}

	r.logger.Infof("Ingested %d rows from %s (format=%s)", ds.NumRows(), filepath.Base(path), format)

	return ds, md, nil
}

// detectFormat picks CSV or JSON. With an advisor, its hint is combined
// with the extension; any advisor failure falls back to the extension.
func (r *Reader) detectFormat(ctx context.Context, path string, content []byte) string {
	isCSVExt := strings.EqualFold(filepath.Ext(path), ".csv")

	if r.advisor != nil {
		preview := content
		if len(preview) > formatPreviewBytes {
			preview = preview[:formatPreviewBytes]
		}
		situation := fmt.Sprintf("File name: %s\nFile extension: %s\nFirst %d chars: %s",
			filepath.Base(path), strings.TrimPrefix(filepath.Ext(path), "."), len(preview), preview)

		answer, err := advisor.Reason(ctx, r.advisor, situation, formatQuestion)
		if err != nil {
			r.logger.Warnf("Advisor format hint failed, using extension: %v", err)
		} else if strings.Contains(strings.ToLower(answer), "csv") || isCSVExt {
			return FormatCSV
		} else {
			return FormatJSON
		}
	}

	if isCSVExt {
		return FormatCSV
	}
	return FormatJSON
}

// analyzeSchemaChange asks the advisor what a schema change implies.
// Best-effort: failures are logged and return an empty analysis.
func (r *Reader) analyzeSchemaChange(ctx context.Context, md *Metadata) string {
	if r.advisor == nil {
		return ""
	}

	situation := fmt.Sprintf("Current schema: %v\nNew columns: %v\nRows: %d\nData types: %v",
		md.Schema, md.NewColumns, md.Rows, md.DataTypes)

	analysis, err := advisor.Reason(ctx, r.advisor, situation, schemaQuestion)
	if err != nil {
		r.logger.Warnf("Advisor schema analysis failed: %v", err)
		return ""
	}
	if analysis != "" {
		r.logger.Infof("Advisor schema analysis: %.150s", analysis)
	}
	return analysis
}

// parseCSV reads CSV content with a header row. Empty cells become nulls.
func parseCSV(content []byte) (*dataset.Dataset, error) {
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file contains no data")
	}

	ds, err := dataset.New(records[0])
	if err != nil {
		return nil, err
	}

	for _, record := range records[1:] {
		row := make([]any, len(record))
		for i, cell := range record {
			if cell == "" {
				row[i] = nil
			} else {
				row[i] = cell
			}
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// parseJSON reads a JSON array of flat objects. Column order follows first
// appearance across records; missing fields become nulls.
func parseJSON(content []byte) (*dataset.Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected a JSON array of objects")
	}

	var columns []string
	seen := make(map[string]bool)
	var records []map[string]any

	for dec.More() {
		record, keys, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		records = append(records, record)
	}

	// Consume the closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	ds, err := dataset.New(columns)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = record[col] // missing keys stay nil
		}
		if err := ds.AppendRow(row); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// decodeObject reads one flat JSON object, preserving key order.
func decodeObject(dec *json.Decoder) (map[string]any, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	record := make(map[string]any)
	var keys []string

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON: %w", err)
		}

		switch v := valTok.(type) {
		case json.Delim:
			return nil, nil, fmt.Errorf("nested value in field %q is not supported", key)
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, nil, fmt.Errorf("invalid number in field %q: %w", key, err)
			}
			record[key] = f
		case string:
			record[key] = v
		case bool:
			record[key] = v
		default: // JSON null
			record[key] = nil
		}
		keys = append(keys, key)
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return record, keys, nil
}

// columnTypes infers a type label for every column.
func columnTypes(ds *dataset.Dataset) map[string]string {
	types := make(map[string]string, ds.NumColumns())
	for _, col := range ds.Columns() {
		types[col] = dataset.InferColumnType(ds.Column(col))
	}
	return types
}
