package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/lispui/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // assertion type for categorization
	Expected string       // human-readable expected outcome
	Actual   string       // human-readable actual outcome
	Trace    []TraceEvent // executed steps, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for i, ev := range e.Trace {
			switch ev.Type {
			case StepFire:
				fmt.Fprintf(&buf, "  [%d] fire %s %s\n", i+1, ev.Target, ev.Event)
			case StepUpdate:
				fmt.Fprintf(&buf, "  [%d] update %v\n", i+1, ev.Update)
			}
		}
	}
	return buf.String()
}

// assertState checks the value at a dotted path of the final state.
// Numbers compare by value, so YAML 4 matches a stored 4.0.
func assertState(result *Result, a Assertion) error {
	path := ir.ParsePath(a.Path)
	actual, ok := ir.Lookup(result.State, path)
	if !ok {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s = %v", a.Path, a.Equals),
			Actual:   fmt.Sprintf("%s not present in state", a.Path),
			Trace:    result.Trace,
		}
	}
	if !valuesEqual(actual, a.Equals) {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s = %v (type %T)", a.Path, a.Equals, a.Equals),
			Actual:   fmt.Sprintf("%s = %v (type %T)", a.Path, actual, actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertHTMLContains checks that the final document contains a.Text.
func assertHTMLContains(result *Result, a Assertion) error {
	if strings.Contains(result.HTML, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertHTMLContains,
		Expected: fmt.Sprintf("document containing %q", a.Text),
		Actual:   result.HTML,
		Trace:    result.Trace,
	}
}

// assertRenderCount checks the number of completed renders.
func assertRenderCount(result *Result, a Assertion) error {
	if result.Renders == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRenderCount,
		Expected: fmt.Sprintf("%d renders", a.Count),
		Actual:   fmt.Sprintf("%d renders", result.Renders),
		Trace:    result.Trace,
	}
}

// valuesEqual compares a state value with a YAML-decoded value.
// Numbers of any type compare as float64; maps and slices compare
// element-wise.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}

	if a, ok := number(actual); ok {
		e, ok := number(expected)
		return ok && a == e
	}

	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for k, v := range exp {
			if !valuesEqual(act[k], v) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(act[i], exp[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a message for each failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertState:
			err = assertState(result, assertion)
		case AssertHTMLContains:
			err = assertHTMLContains(result, assertion)
		case AssertRenderCount:
			err = assertRenderCount(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
