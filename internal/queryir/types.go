package queryir

import "github.com/roach88/chartquery/internal/ir"

// Limit bounds shared by the compiler and validator.
const (
	DefaultLimit = 50
	MinLimit     = 1
	MaxLimit     = 200
)

// Direction is the sort direction of the ORDER BY clause.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Op is a comparison operator usable in a predicate.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Predicate represents one filter condition.
//
// This is a sealed interface - only types in this package implement it.
// A Select's predicates are combined with AND.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Compare is a single-column comparison against a bound value.
//
// Semantics:
//
//	<column> <op> ?
//
// Example:
//
//	Compare{Column: "PatientID", Op: OpEq, Value: ir.IRString("P001")}
//
// Translates to SQL:
//
//	PatientID = ?   -- params: ["P001"]
type Compare struct {
	Column string     // Registry column name
	Op     Op         // Comparison operator
	Value  ir.IRValue // Bound value (never interpolated)
}

func (Compare) predicateNode() {}

// Select is a compiled, bounded, single-table read.
//
// Semantics:
//
//	SELECT <columns> FROM <from>
//	[WHERE <p1> AND <p2> ...]
//	ORDER BY <order_column> <direction>
//	<fetch first limit rows>
//
// Columns is always the table's full column list (no pruning). Predicates
// keep the order they were appended in, which fixes the order of bound
// parameters. Limit is the post-clamp row cap.
type Select struct {
	From        string
	Columns     []string
	Predicates  []Predicate
	OrderColumn string
	Direction   Direction
	Limit       int
}

// Params returns the predicate values in predicate order.
// The limit is not included; builders append it last.
func (s Select) Params() []ir.IRValue {
	params := make([]ir.IRValue, 0, len(s.Predicates))
	for _, p := range s.Predicates {
		if c, ok := p.(Compare); ok {
			params = append(params, c.Value)
		}
	}
	return params
}
