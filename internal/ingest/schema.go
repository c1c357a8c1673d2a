package ingest

import (
	"slices"
	"sort"
	"sync"
)

// SchemaTracker remembers the most recently observed schema so that
// changes between files can be detected. Safe for concurrent use.
type SchemaTracker struct {
	mu   sync.Mutex
	seen bool
	last []string
}

func NewSchemaTracker() *SchemaTracker {
	return &SchemaTracker{}
}

// Observe records a schema and reports whether it differs from the
// previous one, along with any newly appearing columns sorted by name.
// The first observation never counts as a change.
func (t *SchemaTracker) Observe(schema []string) (bool, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.last
	first := !t.seen
	t.seen = true
	t.last = append([]string(nil), schema...)

	if first || slices.Equal(prev, schema) {
		return false, nil
	}

	known := make(map[string]bool, len(prev))
	for _, col := range prev {
		known[col] = true
	}

	var newCols []string
	for _, col := range schema {
		if !known[col] {
			newCols = append(newCols, col)
		}
	}
	sort.Strings(newCols)

	return true, newCols
}
