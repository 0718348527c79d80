package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/chartquery/internal/ir"
)

// TraceSnapshot is the golden-file form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Executions   int          `json:"executions"`
	Trace        []TraceEvent `json:"trace"`
}

// NewSnapshot builds the snapshot for a finished run.
func NewSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{ScenarioName: name, Executions: result.Executions, Trace: result.Trace}
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical. Rows are
// reduced to their first column, which is the table's key.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"step":    event.Step,
			"outcome": event.Outcome,
			"count":   event.Count,
		}
		if event.Name != "" {
			eventMap["name"] = event.Name
		}
		if event.Table != "" {
			eventMap["table"] = event.Table
		}
		if event.Message != "" {
			eventMap["message"] = event.Message
		}
		if event.SQL != "" {
			eventMap["sql"] = event.SQL
			params := make([]any, len(event.Params))
			copy(params, event.Params)
			eventMap["params"] = params
		}
		if len(event.Rows) > 0 {
			keys := make([]any, len(event.Rows))
			for j, row := range event.Rows {
				if len(row.Values) > 0 {
					keys[j] = row.Values[0]
				}
			}
			eventMap["row_keys"] = keys
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"executions":    s.Executions,
		"trace":         traceList,
	}
}

// MarshalSnapshot renders the snapshot as canonical JSON.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(NewSnapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
