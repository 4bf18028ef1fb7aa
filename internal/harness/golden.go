package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/lispui/internal/ir"
)

// RunWithGolden executes a scenario and compares the final document
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. Assertion failures and
// golden mismatches fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if !result.Pass {
		t.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares a result's final document against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.HTML))
}

// Snapshot is the canonical JSON form of a result's observable outcome:
// the trace, final state and render count. Two runs of the same
// scenario produce identical snapshots.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"seq":     ev.Seq,
			"type":    ev.Type,
			"renders": ev.Renders,
		}
		if ev.Target != "" {
			m["target"] = ev.Target
			m["event"] = ev.Event
		}
		if ev.Value != "" {
			m["value"] = ev.Value
		}
		if ev.Update != nil {
			m["update"] = ev.Update
		}
		trace[i] = m
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"html":          result.HTML,
		"state":         result.State,
		"renders":       result.Renders,
		"trace":         trace,
	})
}
