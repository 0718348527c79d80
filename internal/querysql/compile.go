package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/chartquery/internal/ir"
	"github.com/roach88/chartquery/internal/queryir"
)

// Dialect selects the bounded-fetch syntax of the target database.
type Dialect string

const (
	SQLServer Dialect = "sqlserver"
	Postgres  Dialect = "postgres"
	SQLite    Dialect = "sqlite"
)

// ParseDialect maps a backend name to a Dialect. Empty means SQLServer.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case "", SQLServer:
		return SQLServer, nil
	case Postgres:
		return Postgres, nil
	case SQLite:
		return SQLite, nil
	default:
		return "", fmt.Errorf("unknown SQL dialect %q", name)
	}
}

// fetchClause is the row cap appended after ORDER BY. Its single
// placeholder is always the last bound parameter.
func (d Dialect) fetchClause() string {
	if d == SQLite {
		return "LIMIT ?"
	}
	return "OFFSET 0 ROWS FETCH NEXT ? ROWS ONLY"
}

// SQLCompiler compiles a queryir.Select to parameterized SQL.
//
// Query text uses `?` placeholders in every dialect; the gateway rebinds
// them to the driver's native style. Table and column names come from the
// registry and are inserted verbatim after validation. Caller-supplied
// values only ever travel as parameters.
type SQLCompiler struct {
	Dialect Dialect
}

// NewSQLCompiler creates a compiler for the given dialect.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d}
}

// Compile converts a Select to (sql, params, error).
//
// Shape:
//
//	SELECT c1, c2 FROM T [WHERE p1 AND p2] ORDER BY col DIR <fetch>
//
// params holds one value per predicate in predicate order, followed by the
// limit as an int.
func (c *SQLCompiler) Compile(sel *queryir.Select) (string, []any, error) {
	if sel == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if result := queryir.Validate(*sel); !result.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(result.Problems, "; "))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(sel.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(sel.From)

	values := sel.Params()
	params := make([]any, 0, len(values)+1)
	if len(sel.Predicates) > 0 {
		clauses := make([]string, 0, len(sel.Predicates))
		for i, p := range sel.Predicates {
			clause, err := compilePredicate(p)
			if err != nil {
				return "", nil, fmt.Errorf("predicate %d: %w", i, err)
			}
			clauses = append(clauses, clause)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	for i, v := range values {
		param, err := irValueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("predicate %d: convert value: %w", i, err)
		}
		params = append(params, param)
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(sel.OrderColumn)
	sb.WriteString(" ")
	sb.WriteString(string(sel.Direction))
	sb.WriteString(" ")
	sb.WriteString(c.Dialect.fetchClause())

	params = append(params, sel.Limit)
	return sb.String(), params, nil
}

// CompileProbe renders the single-row connectivity probe for table.
// It selects every column the database has, not only registered ones.
func (c *SQLCompiler) CompileProbe(table string) (string, error) {
	if !queryir.IsIdentifier(table) {
		return "", fmt.Errorf("table %q is not a plain identifier", table)
	}
	if c.Dialect == SQLServer {
		return "SELECT TOP (1) * FROM " + table, nil
	}
	return "SELECT * FROM " + table + " LIMIT 1", nil
}

// compilePredicate compiles one predicate to "column op ?".
func compilePredicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return fmt.Sprintf("%s %s ?", pred.Column, pred.Op), nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// irValueToParam converts an ir.IRValue to a driver-ready parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		return float64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRTime:
		return time.Time(val), nil
	case ir.IRNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
