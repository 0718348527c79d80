package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chartquery/internal/querysql"
)

// Scenario is a sequence of query requests run against the seeded
// clinical fixture database, with expectations per step and assertions
// over the whole run.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Dialect the expected SQL is written in. Execution always uses the
	// SQLite fixture. Defaults to sqlite.
	Dialect string `yaml:"dialect,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step sends one request body through the engine.
type Step struct {
	// Name identifies the step in assertions and failure messages.
	Name string `yaml:"name"`

	// Request is marshaled to JSON as the body. Exactly one of Request
	// and Body is set; Body carries malformed input verbatim.
	Request map[string]any `yaml:"request,omitempty"`
	Body    string         `yaml:"body,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies what a step must produce. Unset fields are not
// checked.
type ExpectClause struct {
	Outcome string `yaml:"outcome"`
	Message string `yaml:"message,omitempty"`
	SQL     string `yaml:"sql,omitempty"`
	Params  []any  `yaml:"params,omitempty"`
	Count   *int   `yaml:"count,omitempty"`

	// Rows are matched in order; each is a subset of the actual row.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Assertion validates the run as a whole.
type Assertion struct {
	// Type is one of ordered_by, outcome_count, executed_count.
	Type string `yaml:"type"`

	// Step names the step ordered_by inspects.
	Step string `yaml:"step,omitempty"`

	Column    string `yaml:"column,omitempty"`
	Direction string `yaml:"direction,omitempty"`

	// Outcome is counted by outcome_count.
	Outcome string `yaml:"outcome,omitempty"`
	Count   int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOrderedBy     = "ordered_by"
	AssertOutcomeCount  = "outcome_count"
	AssertExecutedCount = "executed_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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
	if _, err := querysql.ParseDialect(s.Dialect); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("steps[%d]: name is required", i)
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true

		if (step.Request == nil) == (step.Body == "") {
			return fmt.Errorf("steps[%d]: exactly one of request and body is required", i)
		}
		if step.Expect != nil && !validOutcomes[step.Expect.Outcome] {
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, steps map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOrderedBy:
		if !steps[a.Step] {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, a.Step)
		}
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for ordered_by", index)
		}
		if a.Direction != "asc" && a.Direction != "desc" {
			return fmt.Errorf("assertions[%d]: direction must be asc or desc", index)
		}
	case AssertOutcomeCount:
		if !validOutcomes[a.Outcome] {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertExecutedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
