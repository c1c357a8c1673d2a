package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommandStructure(t *testing.T) {
	assert.NotNil(t, checkCmd)
	assert.Equal(t, "check", checkCmd.Use)
	assert.NotEmpty(t, checkCmd.Short)
	assert.NotEmpty(t, checkCmd.Long)
	assert.NotNil(t, checkCmd.RunE)
}

func TestCheckIsAddedToRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "check" {
			found = true
			break
		}
	}
	assert.True(t, found, "check command should be added to root command")
}

func TestCheckCommandExample(t *testing.T) {
	assert.Contains(t, checkCmd.Long, "Example:")
	assert.Contains(t, checkCmd.Long, "gopipeline check")
}

// writeCheckFixture seeds an input dir plus a config pointing at it and
// returns the config path.
func writeCheckFixture(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	inputDir := filepath.Join(tmpDir, "data")
	require.NoError(t, os.MkdirAll(inputDir, 0755))

	for name, content := range seedInputs {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name), []byte(content), 0644))
	}

	configPath := filepath.Join(tmpDir, "pipeline.yaml")
	configContent := `pipeline:
  input_dir: ` + inputDir + `
logging:
  level: error
  output: stderr
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	return configPath
}

func TestRunCheck_ReportsDecisions(t *testing.T) {
	originalCfgFile := cfgFile
	originalCheckFiles := checkFiles
	defer func() {
		cfgFile = originalCfgFile
		checkFiles = originalCheckFiles
	}()

	cfgFile = writeCheckFixture(t)
	checkFiles = nil

	var buf bytes.Buffer
	checkCmd.SetOut(&buf)

	err := runCheck(checkCmd, []string{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== Pipeline Check ===")
	assert.Contains(t, out, "--- day1_clean.csv ---")
	assert.Contains(t, out, "--- day2_messy.csv ---")
	assert.Contains(t, out, "--- day3_schema_change.csv ---")

	// day1 is pristine, day2 lands in the cleaning band
	assert.Contains(t, out, "Quality Score: 100/100")
	assert.Contains(t, out, "Decision: PROCEED")
	assert.Contains(t, out, "Decision: CLEAN")
	assert.NotContains(t, out, "Decision: ABORT")

	// Nothing is ever loaded from check
	assert.Contains(t, out, "No data was modified")
}

func TestRunCheck_FilesFlagLimitsScope(t *testing.T) {
	originalCfgFile := cfgFile
	originalCheckFiles := checkFiles
	defer func() {
		cfgFile = originalCfgFile
		checkFiles = originalCheckFiles
	}()

	cfgFile = writeCheckFixture(t)
	checkFiles = []string{"day2_messy.csv"}

	var buf bytes.Buffer
	checkCmd.SetOut(&buf)

	err := runCheck(checkCmd, []string{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "--- day2_messy.csv ---")
	assert.NotContains(t, out, "day1_clean.csv")
	assert.Contains(t, out, "Decision: CLEAN")
}

func TestRunCheck_UnreadableFileFails(t *testing.T) {
	originalCfgFile := cfgFile
	originalCheckFiles := checkFiles
	defer func() {
		cfgFile = originalCfgFile
		checkFiles = originalCheckFiles
	}()

	cfgFile = writeCheckFixture(t)
	checkFiles = []string{"day1_clean.csv", "day9_missing.csv"}

	var buf bytes.Buffer
	checkCmd.SetOut(&buf)

	err := runCheck(checkCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one or more files")

	// The readable file is still reported
	assert.Contains(t, buf.String(), "--- day1_clean.csv ---")
	assert.Contains(t, buf.String(), "Ingest failed")
}

func TestRunCheck_MissingConfig(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")

	err := runCheck(checkCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
