package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios([]string{scenariosDir})
	require.NoError(t, err)
	require.Len(t, files, 4)
	assert.Equal(t, "counter_clicks.yaml", filepath.Base(files[0]))

	_, err = FindScenarios([]string{"nowhere"})
	assert.ErrorContains(t, err, "scenario path not found")
}

func TestRunSuite(t *testing.T) {
	files, err := FindScenarios([]string{scenariosDir})
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\n"), 0644))

	var checked []string
	result := RunSuite(append(files, bad), func(s *Scenario, path string, r *Result) error {
		checked = append(checked, s.Name)
		if s.Name == "toggle_flip" {
			return errors.New("golden mismatch")
		}
		return nil
	})
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.Passed)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, checked, 4)

	require.Len(t, result.Failures, 2)
	assert.Contains(t, result.Failures[0].Error, "golden mismatch")
	assert.Equal(t, bad, result.Failures[1].ScenarioPath)
	assert.Contains(t, result.Failures[1].Error, "failed to load scenario")

	require.Len(t, result.Results, 4)
	assert.Equal(t, "toggle_flip", result.Results[3].Name)
	assert.False(t, result.Results[3].Pass)
}
