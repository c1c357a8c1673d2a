package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandStructure(t *testing.T) {
	assert.NotNil(t, runCmd)
	assert.Equal(t, "run", runCmd.Use)
	assert.NotEmpty(t, runCmd.Short)
	assert.NotEmpty(t, runCmd.Long)
	assert.NotNil(t, runCmd.RunE)
}

func TestRunCommandFlags(t *testing.T) {
	flags := runCmd.Flags()

	filesFlag := flags.Lookup("files")
	assert.NotNil(t, filesFlag)

	reportFlag := flags.Lookup("report")
	assert.NotNil(t, reportFlag)
	assert.Equal(t, "", reportFlag.DefValue)

	routingFlag := flags.Lookup("use-advisor-routing")
	assert.NotNil(t, routingFlag)
	assert.Equal(t, "false", routingFlag.DefValue)
}

func TestRunIsAddedToRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "run" {
			found = true
			break
		}
	}
	assert.True(t, found, "run command should be added to root command")
}

func TestRunCommandDocumentsRoutingBands(t *testing.T) {
	doc := runCmd.Long
	assert.Contains(t, doc, "below 60")
	assert.Contains(t, doc, "60 to 80")
	assert.Contains(t, doc, "above 80")
}

func TestRunPipeline_MissingConfig(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")

	err := runPipeline(runCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunPipeline_InvalidConfig(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	// Valid YAML but no warehouse settings
	cfgFile = writeCheckFixture(t)

	err := runPipeline(runCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
