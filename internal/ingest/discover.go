package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiscoverFiles returns the names of supported source files (.csv, .json)
// directly under dir, sorted alphabetically. Subdirectories are not scanned.
func DiscoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if SupportedFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}

	return files, nil
}

// SupportedFile reports whether the file name has a supported extension.
func SupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".json":
		return true
	}
	return false
}
