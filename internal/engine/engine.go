package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/chartquery/internal/compiler"
	"github.com/roach88/chartquery/internal/queryir"
	"github.com/roach88/chartquery/internal/querysql"
	"github.com/roach88/chartquery/internal/schema"
	"github.com/roach88/chartquery/internal/store"
)

// Executor runs SQL. *store.Gateway is the production implementation.
type Executor interface {
	Execute(ctx context.Context, query string, params []any) ([]store.Row, error)
	Probe(ctx context.Context, query string) (*store.Row, error)
}

// Result is a successful query response.
type Result struct {
	Table string      `json:"table"`
	Count int         `json:"count"`
	Rows  []store.Row `json:"rows"`
}

// ProbeResult is one row fetched from a table to check connectivity.
// Row is nil when the table is empty.
type ProbeResult struct {
	Table string     `json:"table"`
	Row   *store.Row `json:"row"`
}

// Plan is a compiled request ready for execution.
type Plan struct {
	Table  string
	Select *queryir.Select
	SQL    string
	Params []any
}

// Engine runs the request pipeline: decode, look up, compile, build,
// execute. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	registry *schema.Registry
	sql      *querysql.SQLCompiler
	executor Executor
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the default clinical registry.
func WithRegistry(reg *schema.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithLogger sets the engine's logger. Defaults to discarding.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine that renders SQL for dialect and runs it on executor.
func New(executor Executor, dialect querysql.Dialect, opts ...Option) *Engine {
	e := &Engine{
		registry: schema.Default(),
		sql:      querysql.NewSQLCompiler(dialect),
		executor: executor,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry requests are resolved against.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Plan decodes and compiles body without touching the database.
// Errors are *QueryError with a validation code.
func (e *Engine) Plan(body []byte) (*Plan, error) {
	req, err := compiler.DecodeRequest(body)
	if err != nil {
		return nil, classifyCompileError(req.Table, err)
	}

	sel, err := compiler.CompileRequest(e.registry, req)
	if err != nil {
		return nil, classifyCompileError(req.Table, err)
	}

	query, params, err := e.sql.Compile(sel)
	if err != nil {
		return nil, newExecutionError(sel.From, fmt.Errorf("build query: %w", err))
	}

	return &Plan{Table: sel.From, Select: sel, SQL: query, Params: params}, nil
}

// Query runs the whole pipeline for one request body.
//
// No connection is attempted unless the request compiles. Execution
// failures are not retried and no partial rows are returned.
func (e *Engine) Query(ctx context.Context, body []byte) (*Result, error) {
	plan, err := e.Plan(body)
	if err != nil {
		e.logger.Debug("request rejected", "error", err)
		return nil, err
	}

	rows, err := e.executor.Execute(ctx, plan.SQL, plan.Params)
	if err != nil {
		e.logger.Error("query execution failed", "table", plan.Table, "connectivity", store.IsConnectivityError(err), "error", err)
		return nil, newExecutionError(plan.Table, err)
	}

	e.logger.Info("query served", "table", plan.Table, "rows", len(rows), "limit", plan.Select.Limit)
	return &Result{Table: plan.Table, Count: len(rows), Rows: rows}, nil
}

// Probe fetches a single unfiltered row from a registered table.
func (e *Engine) Probe(ctx context.Context, table string) (*ProbeResult, error) {
	if _, ok := e.registry.Lookup(table); !ok {
		return nil, newUnsupportedTable(table)
	}

	query, err := e.sql.CompileProbe(table)
	if err != nil {
		return nil, newExecutionError(table, fmt.Errorf("build probe: %w", err))
	}

	row, err := e.executor.Probe(ctx, query)
	if err != nil {
		e.logger.Error("probe failed", "table", table, "connectivity", store.IsConnectivityError(err), "error", err)
		return nil, newExecutionError(table, err)
	}
	return &ProbeResult{Table: table, Row: row}, nil
}
