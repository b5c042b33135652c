package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	harnessScenarios = "../harness/testdata/scenarios"
	harnessGolden    = "../harness/testdata/golden"
)

const passingScenario = `name: passing
description: a marked sequence reads back as found
flow:
  - op: mark
    sequences: [abca]
    expect:
      applied: 1
assertions:
  - type: found
    sequences: [abca]
`

const failingScenario = `name: failing
description: expects the wrong count
flow:
  - op: mark
    sequences: [abca]
    expect:
      applied: 2
assertions:
  - type: found
    sequences: [abca]
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, stderr, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, Reported(err))
	assert.Contains(t, stderr, "Error [E005]: scenarios not found")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	stdout, stderr, err := execute(t, "test", harnessScenarios, "--golden-dir", harnessGolden)
	require.NoError(t, err, "stdout: %s\nstderr: %s", stdout, stderr)

	assert.Contains(t, stdout, "✓ mark_and_lookup\n")
	assert.Contains(t, stdout, "✓ bulk_update_buckets\n")
	assert.Contains(t, stdout, "✓ reinitialize_preserves_found\n")
	assert.Contains(t, stdout, "Test summary: 3 passed, 0 failed, 3 total")
}

func TestTestCommandFilter(t *testing.T) {
	stdout, _, err := execute(t, "test", harnessScenarios, "--filter", "bulk_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ bulk_update_buckets\n")
	assert.NotContains(t, stdout, "mark_and_lookup")
	assert.Contains(t, stdout, "Test summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, _, err := execute(t, "test", harnessScenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "passing.yaml", passingScenario)
	writeScenario(t, dir, "failing.yaml", failingScenario)

	stdout, stderr, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, Reported(err))

	assert.Contains(t, stdout, "✓ passing\n")
	assert.Contains(t, stdout, "✗ failing\n  flow[0] mark: expected applied=2, got 1\n")
	assert.Contains(t, stdout, "Test summary: 1 passed, 1 failed, 2 total")
	assert.Contains(t, stderr, "Error [E008]: 1 scenario(s) failed")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "broken.yaml", "name: broken\nflwo: []\n")

	stdout, _, err := execute(t, "test", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ broken.yaml\n  failed to load scenario")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "failing.yaml", failingScenario)

	stdout, _, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeTestFailed, response.Error.Code)
	assert.Equal(t, 1, response.Data.Failed)
	require.Len(t, response.Data.Scenarios, 1)
	assert.Equal(t, "failing", response.Data.Scenarios[0].Name)
	assert.False(t, response.Data.Scenarios[0].Pass)
}

func TestTestCommandGoldenUpdateAndMismatch(t *testing.T) {
	dir := t.TempDir()
	goldenDir := filepath.Join(dir, "golden")
	path := writeScenario(t, dir, "passing.yaml", passingScenario)

	_, _, err := execute(t, "test", path, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "test", path, "--golden-dir", goldenDir, "--update")
	require.NoError(t, err)
	golden, err := os.ReadFile(filepath.Join(goldenDir, "passing.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "passing"`)

	_, _, err = execute(t, "test", path, "--golden-dir", goldenDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "passing.golden"), []byte("{}\n"), 0o644))
	stdout, _, err := execute(t, "test", path, "--golden-dir", goldenDir)
	require.Error(t, err)
	assert.Contains(t, stdout, "trace does not match")
}
