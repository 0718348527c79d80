package harness

import "github.com/roach88/chartquery/internal/store"

// Step outcomes, as recorded in the trace and named in expect clauses.
const (
	OutcomeOK                 = "ok"
	OutcomeValidation         = "validation"
	OutcomeMalformedTimestamp = "malformed_timestamp"
	OutcomeExecution          = "execution"
)

var validOutcomes = map[string]bool{
	OutcomeOK:                 true,
	OutcomeValidation:         true,
	OutcomeMalformedTimestamp: true,
	OutcomeExecution:          true,
}

// TraceEvent records what one scenario step did.
type TraceEvent struct {
	Step    int    `json:"step"`
	Name    string `json:"name,omitempty"`
	Outcome string `json:"outcome"`
	Table   string `json:"table,omitempty"`
	Message string `json:"message,omitempty"`

	// SQL and Params are the plan rendered in the scenario's dialect.
	// Empty when the request did not compile.
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`

	Count int         `json:"count"`
	Rows  []store.Row `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Executions counts statements that reached the database.
	Executions int `json:"executions"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends a step to the trace.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// event returns the trace entry for the named step.
func (r *Result) event(name string) (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.Name == name {
			return e, true
		}
	}
	return TraceEvent{}, false
}
