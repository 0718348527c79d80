package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/chartquery/internal/ir"
)

// Gateway runs compiled queries. Each call acquires its own handle from
// the factory and releases it before returning, on every path.
type Gateway struct {
	factory ConnectionFactory
	logger  *slog.Logger
}

// NewGateway creates a gateway over factory. A nil logger discards.
func NewGateway(factory ConnectionFactory, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{factory: factory, logger: logger}
}

// Execute runs query with params bound positionally and returns every row.
// query uses `?` placeholders; they are rebound to the driver's style here.
//
// Returns an empty slice (not nil) when nothing matches. Any failure is an
// *ExecutionError and no partial result is returned.
func (g *Gateway) Execute(ctx context.Context, query string, params []any) ([]Row, error) {
	var out []Row
	err := g.withConn(ctx, func(db *sqlx.DB) error {
		rows, err := db.QueryxContext(ctx, db.Rebind(query), params...)
		if err != nil {
			return &ExecutionError{Op: "query", Err: err}
		}
		defer rows.Close()

		out, err = collectRows(rows, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("query executed", "rows", len(out))
	return out, nil
}

// Probe runs a single-row query with no parameters. It returns nil and no
// error when the table is empty.
func (g *Gateway) Probe(ctx context.Context, query string) (*Row, error) {
	var row *Row
	err := g.withConn(ctx, func(db *sqlx.DB) error {
		rows, err := db.QueryxContext(ctx, query)
		if err != nil {
			return &ExecutionError{Op: "query", Err: err}
		}
		defer rows.Close()

		got, err := collectRows(rows, 1)
		if err != nil {
			return err
		}
		if len(got) > 0 {
			row = &got[0]
		}
		return nil
	})
	return row, err
}

// withConn acquires a handle, runs fn and always closes the handle.
func (g *Gateway) withConn(ctx context.Context, fn func(db *sqlx.DB) error) error {
	db, err := g.factory.Connect(ctx)
	if err != nil {
		g.logger.Warn("connection failed", "error", err)
		return &ExecutionError{Op: "connect", Err: err}
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			g.logger.Warn("close failed", "error", cerr)
		}
	}()
	return fn(db)
}

// collectRows reads up to max rows (0 means all) into Row values.
func collectRows(rows *sqlx.Rows, max int) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{Op: "scan", Err: fmt.Errorf("read columns: %w", err)}
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, &ExecutionError{Op: "scan", Err: fmt.Errorf("read column types: %w", err)}
	}

	out := []Row{}
	for rows.Next() {
		cells, err := rows.SliceScan()
		if err != nil {
			return nil, &ExecutionError{Op: "scan", Err: err}
		}
		row := Row{
			Columns: columns,
			Values:  make([]ir.IRValue, 0, len(cells)),
		}
		for i, cell := range cells {
			row.Values = append(row.Values, cellValue(cell, types[i].DatabaseTypeName()))
		}
		out = append(out, row)
		if max > 0 && len(out) == max {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Op: "scan", Err: fmt.Errorf("iterate rows: %w", err)}
	}
	return out, nil
}
