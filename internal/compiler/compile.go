package compiler

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/chartquery/internal/ir"
	"github.com/roach88/chartquery/internal/queryir"
	"github.com/roach88/chartquery/internal/schema"
)

// Columns the equality filters apply to.
const (
	columnPatientID   = "PatientID"
	columnEncounterID = "EncounterID"
	columnShift       = "Shift"
)

// CompileRequest looks the request's table up in reg and compiles it.
// A missing or unregistered table is an ErrUnknownTable validation error.
func CompileRequest(reg *schema.Registry, req FilterRequest) (*queryir.Select, error) {
	if req.Table == "" {
		return nil, newUnknownTable()
	}
	table, ok := reg.Lookup(req.Table)
	if !ok {
		return nil, newUnknownTable()
	}
	return Compile(table, req)
}

// Compile builds the Select for req against table.
//
// Steps, in order:
//  1. resolve the limit (default 50, clamp to [1, 200])
//  2. order by the time column, else the fallback column; DESC iff latest
//  3. equality predicates for patient, encounter and shift, each only if
//     supplied and the table has the column
//  4. range predicates on the time column for from (>=) and to (<=),
//     only if the table has a time column
//
// req.Table is not consulted; table is authoritative.
func Compile(table schema.Table, req FilterRequest) (*queryir.Select, error) {
	sel := &queryir.Select{
		From:        table.Name,
		Columns:     table.Columns,
		Predicates:  []queryir.Predicate{},
		OrderColumn: table.OrderColumn(),
		Direction:   queryir.Ascending,
		Limit:       ResolveLimit(req.Limit),
	}
	if req.Latest {
		sel.Direction = queryir.Descending
	}

	equalities := []struct {
		field  string
		column string
		value  ir.IRValue
	}{
		{FieldPatientID, columnPatientID, req.PatientID},
		{FieldEncounterID, columnEncounterID, req.EncounterID},
		{FieldShift, columnShift, req.Shift},
	}
	for _, eq := range equalities {
		if !ir.Truthy(eq.value) || !table.HasColumn(eq.column) {
			continue
		}
		value, err := equalityValue(eq.field, eq.value)
		if err != nil {
			return nil, err
		}
		sel.Predicates = append(sel.Predicates, queryir.Compare{
			Column: eq.column,
			Op:     queryir.OpEq,
			Value:  value,
		})
	}

	if table.HasTimeColumn() {
		ranges := []struct {
			field string
			op    queryir.Op
			value ir.IRValue
		}{
			{FieldFrom, queryir.OpGte, req.From},
			{FieldTo, queryir.OpLte, req.To},
		}
		for _, r := range ranges {
			if !ir.Truthy(r.value) {
				continue
			}
			ts, err := timestampValue(r.field, r.value)
			if err != nil {
				return nil, err
			}
			sel.Predicates = append(sel.Predicates, queryir.Compare{
				Column: table.TimeColumn,
				Op:     r.op,
				Value:  ts,
			})
		}
	}

	return sel, nil
}

// equalityValue accepts strings and integers, bound exactly as sent.
func equalityValue(field string, v ir.IRValue) (ir.IRValue, error) {
	switch v.(type) {
	case ir.IRString, ir.IRInt:
		return v, nil
	default:
		return nil, newUnsupportedValue(field, ir.Kind(v))
	}
}

// timestampValue parses a from/to value. Anything other than a parseable
// string is a malformed timestamp.
func timestampValue(field string, v ir.IRValue) (ir.IRValue, error) {
	s, ok := v.(ir.IRString)
	if !ok {
		return nil, newMalformedTimestamp(field, displayValue(v), nil)
	}
	t, err := ParseTimestamp(string(s))
	if err != nil {
		return nil, newMalformedTimestamp(field, string(s), err)
	}
	return ir.IRTime(t), nil
}

// ResolveLimit turns the caller's limit into a row cap in
// [queryir.MinLimit, queryir.MaxLimit]. Missing or unparseable values give
// queryir.DefaultLimit; out-of-range values are clamped, never rejected.
func ResolveLimit(v ir.IRValue) int {
	switch val := v.(type) {
	case ir.IRInt:
		return clampLimit(int64(val))
	case ir.IRFloat:
		f := math.Trunc(float64(val))
		if math.IsNaN(f) {
			return queryir.DefaultLimit
		}
		if f > queryir.MaxLimit {
			return queryir.MaxLimit
		}
		if f < queryir.MinLimit {
			return queryir.MinLimit
		}
		return int(f)
	case ir.IRBool:
		if val {
			return clampLimit(1)
		}
		return clampLimit(0)
	case ir.IRString:
		s := strings.TrimSpace(string(val))
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return clampLimit(n)
		}
		// Integers too large for int64 are still integers
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(s, "-") {
				return queryir.MinLimit
			}
			return queryir.MaxLimit
		}
		return queryir.DefaultLimit
	default:
		return queryir.DefaultLimit
	}
}

func clampLimit(n int64) int {
	if n < queryir.MinLimit {
		return queryir.MinLimit
	}
	if n > queryir.MaxLimit {
		return queryir.MaxLimit
	}
	return int(n)
}

func displayValue(v ir.IRValue) string {
	b, err := ir.MarshalIRValue(v)
	if err != nil {
		return ir.Kind(v)
	}
	return string(b)
}
