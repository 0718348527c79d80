package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/chartquery/internal/ir"
	"github.com/roach88/chartquery/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s count=%d\n", event.Step, event.Name, event.Outcome, event.Count)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failures.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertOrderedBy:
			err = assertOrderedBy(result, a)
		case AssertOutcomeCount:
			err = assertOutcomeCount(result, a)
		case AssertExecutedCount:
			err = assertExecutedCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertOrderedBy checks that a step's rows are sorted on column.
// Equal neighbours are allowed; NULLs are not compared.
func assertOrderedBy(result *Result, a Assertion) error {
	event, ok := result.event(a.Step)
	if !ok {
		return &AssertionError{
			Type:     AssertOrderedBy,
			Expected: fmt.Sprintf("step %q in trace", a.Step),
			Actual:   "not found",
			Trace:    result.Trace,
		}
	}

	for i := 1; i < len(event.Rows); i++ {
		prev, okPrev := sortKey(event.Rows[i-1], a.Column)
		curr, okCurr := sortKey(event.Rows[i], a.Column)
		if !okPrev || !okCurr {
			continue
		}
		cmp := prev.compare(curr)
		if (a.Direction == "asc" && cmp > 0) || (a.Direction == "desc" && cmp < 0) {
			return &AssertionError{
				Type:     AssertOrderedBy,
				Expected: fmt.Sprintf("rows of %q ordered by %s %s", a.Step, a.Column, a.Direction),
				Actual:   fmt.Sprintf("row %d (%v) out of order after row %d (%v)", i, curr, i-1, prev),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertOutcomeCount checks how many steps ended with an outcome.
func assertOutcomeCount(result *Result, a Assertion) error {
	count := 0
	for _, event := range result.Trace {
		if event.Outcome == a.Outcome {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%d steps with outcome %s", a.Count, a.Outcome),
			Actual:   fmt.Sprintf("%d steps", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertExecutedCount checks how many statements reached the database.
func assertExecutedCount(result *Result, a Assertion) error {
	if result.Executions != a.Count {
		return &AssertionError{
			Type:     AssertExecutedCount,
			Expected: fmt.Sprintf("%d statements executed", a.Count),
			Actual:   fmt.Sprintf("%d statements executed", result.Executions),
			Trace:    result.Trace,
		}
	}
	return nil
}

// checkExpect compares one step against its expect clause.
func checkExpect(event TraceEvent, expect *ExpectClause) []string {
	var problems []string

	if event.Outcome != expect.Outcome {
		problems = append(problems, fmt.Sprintf("outcome: expected %s, got %s (%s)", expect.Outcome, event.Outcome, event.Message))
	}
	if expect.Message != "" && event.Message != expect.Message {
		problems = append(problems, fmt.Sprintf("message: expected %q, got %q", expect.Message, event.Message))
	}
	if expect.SQL != "" && event.SQL != expect.SQL {
		problems = append(problems, fmt.Sprintf("sql: expected %q, got %q", expect.SQL, event.SQL))
	}
	if expect.Params != nil && !sameJSON(toAnySlice(expect.Params), toAnySlice(event.Params)) {
		problems = append(problems, fmt.Sprintf("params: expected %v, got %v", expect.Params, event.Params))
	}
	if expect.Count != nil && event.Count != *expect.Count {
		problems = append(problems, fmt.Sprintf("count: expected %d, got %d", *expect.Count, event.Count))
	}

	for i, want := range expect.Rows {
		if i >= len(event.Rows) {
			problems = append(problems, fmt.Sprintf("rows[%d]: missing, only %d rows", i, len(event.Rows)))
			break
		}
		for col, wantValue := range want {
			got, ok := event.Rows[i].Get(col)
			if !ok {
				problems = append(problems, fmt.Sprintf("rows[%d].%s: column not present", i, col))
				continue
			}
			if !sameJSON(wantValue, got) {
				problems = append(problems, fmt.Sprintf("rows[%d].%s: expected %v, got %v", i, col, wantValue, got))
			}
		}
	}
	return problems
}

// sameJSON compares two values by their canonical JSON encoding, so YAML
// integers match database integers and timestamps match their RFC 3339 text.
func sameJSON(a, b any) bool {
	ja, errA := ir.MarshalCanonical(a)
	jb, errB := ir.MarshalCanonical(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func toAnySlice(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

// orderKey is a comparable projection of a cell.
type orderKey struct {
	text   string
	number float64
	isNum  bool
}

func (k orderKey) compare(other orderKey) int {
	if k.isNum && other.isNum {
		switch {
		case k.number < other.number:
			return -1
		case k.number > other.number:
			return 1
		}
		return 0
	}
	return strings.Compare(k.text, other.text)
}

func (k orderKey) String() string {
	if k.isNum {
		return fmt.Sprint(k.number)
	}
	return k.text
}

func sortKey(row store.Row, column string) (orderKey, bool) {
	v, ok := row.Get(column)
	if !ok {
		return orderKey{}, false
	}
	switch val := v.(type) {
	case ir.IRInt:
		return orderKey{number: float64(val), isNum: true}, true
	case ir.IRFloat:
		return orderKey{number: float64(val), isNum: true}, true
	case ir.IRString:
		return orderKey{text: string(val)}, true
	case ir.IRTime:
		// UTC RFC 3339 with fixed width sorts lexically
		return orderKey{text: val.Time().UTC().Format("2006-01-02T15:04:05.000000000")}, true
	default:
		return orderKey{}, false
	}
}
