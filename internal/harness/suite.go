package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Results  []ScenarioOutcome `json:"results"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioOutcome is the result of one scenario in a suite.
type ScenarioOutcome struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Pass    bool     `json:"pass"`
	Renders int      `json:"renders"`
	Errors  []string `json:"errors,omitempty"`
}

// Check is an extra verification run after a scenario's assertions,
// such as a golden file comparison. path is the scenario file.
type Check func(scenario *Scenario, path string, result *Result) error

// ScenarioFailure records why one scenario failed.
type ScenarioFailure struct {
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// FindScenarios expands paths into scenario files. Directories are
// searched recursively for .yaml and .yml files; files are kept as
// given. The result is sorted.
func FindScenarios(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path not found: %s", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if ext := filepath.Ext(path); !fi.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite loads and runs every scenario file, then applies check (if
// non-nil) to each result. Load and run failures are recorded as failed
// scenarios; RunSuite itself does not fail.
func RunSuite(paths []string, check Check) *SuiteResult {
	result := &SuiteResult{Results: []ScenarioOutcome{}}

	for _, path := range paths {
		result.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail(path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		run, err := Run(scenario)
		if err != nil {
			result.fail(path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}

		if check != nil {
			if err := check(scenario, path, run); err != nil {
				run.AddError(err.Error())
			}
		}

		result.Results = append(result.Results, ScenarioOutcome{
			Name:    scenario.Name,
			Path:    path,
			Pass:    run.Pass,
			Renders: run.Renders,
			Errors:  run.Errors,
		})
		if !run.Pass {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("scenario assertions failed: %v", run.Errors),
			})
			continue
		}
		result.Passed++
	}
	return result
}

func (r *SuiteResult) fail(path, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{ScenarioPath: path, Error: msg})
}
