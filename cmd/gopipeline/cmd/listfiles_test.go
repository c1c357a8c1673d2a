package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilesCommandStructure(t *testing.T) {
	assert.NotNil(t, listFilesCmd)
	assert.Equal(t, "list-files", listFilesCmd.Use)
	assert.NotEmpty(t, listFilesCmd.Short)
	assert.NotEmpty(t, listFilesCmd.Long)
	assert.NotNil(t, listFilesCmd.RunE)
}

func TestListFilesIsAddedToRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "list-files" {
			found = true
			break
		}
	}
	assert.True(t, found, "list-files command should be added to root command")
}

func TestRunListFiles(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	cfgFile = writeCheckFixture(t)

	var buf bytes.Buffer
	listFilesCmd.SetOut(&buf)

	err := runListFiles(listFilesCmd, []string{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "1. day1_clean.csv")
	assert.Contains(t, out, "2. day2_messy.csv")
	assert.Contains(t, out, "3. day3_schema_change.csv")
	assert.Contains(t, out, "Format: csv")
	assert.Contains(t, out, "Size:")
	assert.Contains(t, out, "Total: 3 file(s)")
	assert.NotContains(t, out, "Configured but missing")
}

func TestRunListFiles_MarksConfiguredFiles(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tmpDir := t.TempDir()
	inputDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(inputDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "day1_clean.csv"),
		[]byte(seedInputs["day1_clean.csv"]), 0644))

	cfgFile = filepath.Join(tmpDir, "pipeline.yaml")
	configContent := `pipeline:
  input_dir: ` + inputDir + `
  files:
    - day1_clean.csv
    - day7_future.csv
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(configContent), 0644))

	var buf bytes.Buffer
	listFilesCmd.SetOut(&buf)

	err := runListFiles(listFilesCmd, []string{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "day1_clean.csv (configured)")
	assert.Contains(t, out, "Configured but missing: [day7_future.csv]")
}

func TestRunListFiles_EmptyDir(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tmpDir := t.TempDir()
	inputDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(inputDir, 0755))

	cfgFile = filepath.Join(tmpDir, "pipeline.yaml")
	configContent := "pipeline:\n  input_dir: " + inputDir + "\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(configContent), 0644))

	var buf bytes.Buffer
	listFilesCmd.SetOut(&buf)

	err := runListFiles(listFilesCmd, []string{})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "No supported files")
}

func TestRunListFiles_MissingDir(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tmpDir := t.TempDir()
	cfgFile = filepath.Join(tmpDir, "pipeline.yaml")
	configContent := "pipeline:\n  input_dir: " + filepath.Join(tmpDir, "missing") + "\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(configContent), 0644))

	err := runListFiles(listFilesCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan input directory")
}
