package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lispui/internal/harness"
)

func repoScenariosDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("..", "..", "testdata", "scenarios")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("testdata/scenarios directory not found")
	}
	return dir
}

// harnessGoldenDir holds the documents the harness package tests pin.
var harnessGoldenDir = filepath.Join("..", "harness", "testdata", "golden")

func runTestCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCmd(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	out, err := runTestCmd(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenario path not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCmd(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCmd(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   harness.SuiteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandRepoScenarios(t *testing.T) {
	out, err := runTestCmd(t, "text", repoScenariosDir(t), "--golden-dir", harnessGoldenDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ counter_clicks")
	assert.Contains(t, out, "✓ toggle_flip")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := runTestCmd(t, "json", repoScenariosDir(t), "--filter", "counter_*")
	require.NoError(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   harness.SuiteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	for _, r := range resp.Data.Results {
		assert.Contains(t, r.Name, "counter_")
	}
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := runTestCmd(t, "text", repoScenariosDir(t), "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateWritesGoldenFiles(t *testing.T) {
	goldenDir := t.TempDir()

	_, err := runTestCmd(t, "text", repoScenariosDir(t), "--golden-dir", goldenDir, "--update")
	require.NoError(t, err)

	for _, name := range []string{"counter_clicks", "counter_reset", "greeter_input", "toggle_flip"} {
		written, err := os.ReadFile(filepath.Join(goldenDir, name+".golden"))
		require.NoError(t, err)
		pinned, err := os.ReadFile(filepath.Join(harnessGoldenDir, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(pinned), string(written), name)
	}

	// a second run compares against what --update wrote
	_, err = runTestCmd(t, "text", repoScenariosDir(t), "--golden-dir", goldenDir)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	goldenDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "counter_clicks.golden"), []byte("<p>stale</p>"), 0644))

	out, err := runTestCmd(t, "text", repoScenariosDir(t), "--golden-dir", goldenDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match")
	assert.Contains(t, out, "Test Summary: 3 passed, 1 failed, 4 total")
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_count
description: "Expects a count the app never reaches"
specs: ` + absPath(t, filepath.Join("..", "..", "testdata", "specs")) + `
app: counter
steps:
  - fire: { tag: button, index: 0, event: click }
assertions:
  - type: state
    path: count
    equals: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0644))

	out, err := runTestCmd(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string              `json:"status"`
		Data   harness.SuiteResult `json:"data"`
		Error  *CLIError           `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Results, 1)
	assert.False(t, resp.Data.Results[0].Pass)
}

func TestFilterScenarios(t *testing.T) {
	files := []string{"a/counter_clicks.yaml", "a/counter_reset.yml", "b/toggle_flip.yaml"}

	kept, err := filterScenarios(files, "")
	require.NoError(t, err)
	assert.Equal(t, files, kept)

	kept, err = filterScenarios(files, "counter_*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/counter_clicks.yaml", "a/counter_reset.yml"}, kept)

	kept, err = filterScenarios(files, "*_flip")
	require.NoError(t, err)
	assert.Equal(t, []string{"b/toggle_flip.yaml"}, kept)
}

func TestGoldenFilePath(t *testing.T) {
	s := &harness.Scenario{Name: "counter_clicks"}

	opts := &TestOptions{}
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "counter_clicks.golden"),
		opts.goldenFilePath(s, filepath.Join("scenarios", "counter_clicks.yaml")))

	opts.GoldenDir = "pinned"
	assert.Equal(t,
		filepath.Join("pinned", "counter_clicks.golden"),
		opts.goldenFilePath(s, filepath.Join("scenarios", "counter_clicks.yaml")))
}

func absPath(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}
