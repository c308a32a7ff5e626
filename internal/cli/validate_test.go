package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pass.yaml", passingScenario)
	writeFile(t, dir, "fail.yaml", failingScenario)
	writeFile(t, dir, "notes.txt", "ignored")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ pass")
	assert.Contains(t, out, "✓ fail")
	assert.NotContains(t, out, "notes")
}

func TestValidateCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "invalid.yaml", invalidScenario)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+path)
	assert.Contains(t, out, `unknown parent "shelf"`)
}

func TestValidateCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "pass.yaml", passingScenario)
	bad := writeFile(t, dir, "invalid.yaml", invalidScenario)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), good, bad)
	require.Error(t, err)

	var resp struct {
		Status string             `json:"status"`
		Data   []ValidationResult `json:"data"`
		Error  *CLIError          `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].Valid)
	assert.Equal(t, "pass", resp.Data[0].Name)
	assert.False(t, resp.Data[1].Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INVALID_SCENARIO", resp.Error.Code)
}

func TestValidateCommand_MissingPath(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand_NoArgs(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestValidateCommand_Verbose(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pass.yaml", passingScenario)

	out, errOut, err := executeBoth(t, NewValidateCommand(&RootOptions{Format: "text", Verbose: true}), path)
	require.NoError(t, err)
	assert.Equal(t, "validating "+path+"\n", errOut)
	assert.Contains(t, out, "✓ pass")
}
