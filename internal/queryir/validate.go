package queryir

import (
	"fmt"
	"regexp"
	"slices"
)

// identPattern accepts only plain SQL identifiers.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name may be written into query text verbatim.
func IsIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// ValidationResult lists the structural problems found in a Select.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists human-readable descriptions of each violation.
	Problems []string
}

// Validate checks that a Select is safe to render:
//  1. table and column names are plain identifiers
//  2. at least one column is selected
//  3. predicate and order columns are among the selected columns
//  4. operators and direction are known
//  5. limit is within [MinLimit, MaxLimit]
//
// Validate is a pure function with no side effects.
func Validate(sel Select) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateSelect(sel)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(sel Select) {
	if !identPattern.MatchString(sel.From) {
		v.addProblem("table %q is not a plain identifier", sel.From)
	}

	if len(sel.Columns) == 0 {
		v.addProblem("no columns selected")
	}
	for _, col := range sel.Columns {
		if !identPattern.MatchString(col) {
			v.addProblem("column %q is not a plain identifier", col)
		}
	}

	for i, p := range sel.Predicates {
		v.validatePredicate(i, p, sel.Columns)
	}

	if !slices.Contains(sel.Columns, sel.OrderColumn) {
		v.addProblem("order column %q is not a selected column", sel.OrderColumn)
	}

	switch sel.Direction {
	case Ascending, Descending:
	default:
		v.addProblem("unknown sort direction %q", sel.Direction)
	}

	if sel.Limit < MinLimit || sel.Limit > MaxLimit {
		v.addProblem("limit %d outside [%d, %d]", sel.Limit, MinLimit, MaxLimit)
	}
}

func (v *validator) validatePredicate(i int, p Predicate, columns []string) {
	switch pred := p.(type) {
	case Compare:
		if !slices.Contains(columns, pred.Column) {
			v.addProblem("predicate %d: column %q is not a selected column", i, pred.Column)
		}
		switch pred.Op {
		case OpEq, OpGte, OpLte:
		default:
			v.addProblem("predicate %d: unknown operator %q", i, pred.Op)
		}
		if pred.Value == nil {
			v.addProblem("predicate %d: missing value", i)
		}
	case nil:
		v.addProblem("predicate %d: nil", i)
	default:
		v.addProblem("predicate %d: unknown predicate type %T", i, p)
	}
}
