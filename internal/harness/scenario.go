package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the CUE specs directory the app is loaded from.
	Specs string `yaml:"specs"`

	// App names the app under test.
	App string `yaml:"app"`

	// Steps run in order after the first render. The scheduler is
	// flushed after every step.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final state and markup.
	Assertions []Assertion `yaml:"assertions"`

	// MountID is an optional fixed mount id. Defaults to "test-mount".
	MountID string `yaml:"mount_id,omitempty"`
}

// Step is either a fire or an update.
type Step struct {
	Fire   *FireStep      `yaml:"fire,omitempty"`
	Update map[string]any `yaml:"update,omitempty"`
}

// FireStep delivers an event to the index-th element with tag.
type FireStep struct {
	Tag   string `yaml:"tag"`
	Index int    `yaml:"index"`
	Event string `yaml:"event"`
	Value string `yaml:"value,omitempty"`
}

// Assertion validates the final result.
type Assertion struct {
	// Type is one of state, html_contains, render_count.
	Type string `yaml:"type"`

	// Path is a dotted state path (state).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value at Path (state).
	Equals any `yaml:"equals,omitempty"`

	// Text must appear in the final document (html_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of renders (render_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertState        = "state"
	AssertHTMLContains = "html_contains"
	AssertRenderCount  = "render_count"
)

// LoadScenario reads and parses a scenario YAML file. A relative specs
// directory is resolved against the scenario file's directory.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative specs directory against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) && basePath != "" {
		scenario.Specs = filepath.Join(basePath, scenario.Specs)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs directory is required")
	}
	if s.App == "" {
		return fmt.Errorf("app is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if info, err := os.Stat(s.Specs); err != nil || !info.IsDir() {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch {
	case s.Fire != nil && s.Update != nil:
		return fmt.Errorf("steps[%d]: fire and update are mutually exclusive", index)
	case s.Fire != nil:
		if s.Fire.Tag == "" {
			return fmt.Errorf("steps[%d].fire: tag is required", index)
		}
		if s.Fire.Event == "" {
			return fmt.Errorf("steps[%d].fire: event is required", index)
		}
		if s.Fire.Index < 0 {
			return fmt.Errorf("steps[%d].fire: index must be non-negative", index)
		}
	case s.Update == nil:
		return fmt.Errorf("steps[%d]: fire or update is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertState:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for state", index)
		}
	case AssertHTMLContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for html_contains", index)
		}
	case AssertRenderCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for render_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
