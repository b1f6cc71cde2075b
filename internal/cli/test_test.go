package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../../testdata/scenarios"

// writeScenario writes a short prologue scenario into dir.
func writeScenario(t *testing.T, dir, name string, xp int64) {
	t.Helper()
	content, err := filepath.Abs(contentDir)
	require.NoError(t, err)
	body := fmt.Sprintf(`name: %s
description: "Investigate the signal"
content:
  - %s
session: cli-session
steps:
  - start: quest_main_prologue
  - choose: { graph: quest_main_prologue, choice: investigate_signal }
assertions:
  - type: experience
    value: %d
`, name, content, xp)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o644))
}

func TestTest_ShippedScenarios(t *testing.T) {
	out := mustRun(t, testConfig(t), "test", scenariosDir)
	assert.Contains(t, out, "✓ board_the_derelict")
	assert.Contains(t, out, "✓ void_ending")
	assert.Contains(t, out, "✓ salvage_ambush")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	var result TestResult
	out := mustRun(t, testConfig(t), "test", scenariosDir, "--filter", "void_*", "--format", "json")
	decode(t, out, &result)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "void_ending", result.Scenarios[0].Name)
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong_xp", 999)

	out, err := runCLI(t, testConfig(t), "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTest_GoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "investigate", 50)
	cfg := testConfig(t)

	out := mustRun(t, cfg, "test", dir, "--update")
	assert.Contains(t, out, "✓ investigate (golden updated)")
	golden := filepath.Join(dir, "golden", "investigate.golden")
	require.FileExists(t, golden)

	var result TestResult
	decode(t, mustRun(t, cfg, "test", dir, "--format", "json"), &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "match", result.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(golden, []byte(`{"trace":[]}`), 0o644))
	out, err := runCLI(t, cfg, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_BadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	out, err := runCLI(t, testConfig(t), "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, err := runCLI(t, testConfig(t), "test", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_EmptyDirectory(t *testing.T) {
	out := mustRun(t, testConfig(t), "test", t.TempDir())
	assert.Contains(t, out, "No scenarios found.")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "void_ending.golden"), goldenFilePath(filepath.Join("s", "void_ending.yaml")))
}
