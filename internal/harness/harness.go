// Package harness runs query scenarios end to end.
//
// Every run gets a fresh SQLite database seeded with the clinical
// fixtures, so traces are identical across runs and can be compared
// against golden files.
package harness

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/chartquery/internal/engine"
	"github.com/roach88/chartquery/internal/querysql"
	"github.com/roach88/chartquery/internal/schema"
	"github.com/roach88/chartquery/internal/store"
	"github.com/roach88/chartquery/internal/testutil"
)

// Harness holds the per-run collaborators.
type Harness struct {
	exec    *engine.Engine // runs against the fixture database
	planner *engine.Engine // renders SQL in the scenario's dialect
	counter *countingExecutor
	logger  *slog.Logger
}

// countingExecutor counts statements that reach the gateway.
type countingExecutor struct {
	inner engine.Executor
	calls int
}

func (c *countingExecutor) Execute(ctx context.Context, query string, params []any) ([]store.Row, error) {
	c.calls++
	return c.inner.Execute(ctx, query, params)
}

func (c *countingExecutor) Probe(ctx context.Context, query string) (*store.Row, error) {
	c.calls++
	return c.inner.Probe(ctx, query)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. seed a fresh SQLite database in a temp directory
//  2. run each step's body through the engine
//  3. check each step's expect clause
//  4. evaluate the scenario assertions
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "chartquery-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, "clinical.db")
	if err := seed(dbPath); err != nil {
		return nil, err
	}

	dialect := querysql.SQLite
	if scenario.Dialect != "" {
		dialect, err = querysql.ParseDialect(scenario.Dialect)
		if err != nil {
			return nil, err
		}
	}

	logger := slog.New(slog.DiscardHandler)
	factory := store.NewDriverFactory(store.Settings{Backend: store.BackendSQLite, SQLitePath: dbPath})
	counter := &countingExecutor{inner: store.NewGateway(factory, logger)}

	h := &Harness{
		exec:    engine.New(counter, querysql.SQLite, engine.WithLogger(logger)),
		planner: engine.New(nil, dialect, engine.WithLogger(logger)),
		counter: counter,
		logger:  logger,
	}

	result := NewResult()
	if err := h.executeSteps(context.Background(), scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}
	result.Executions = counter.calls

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func seed(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open fixture database: %w", err)
	}
	defer db.Close()

	if err := testutil.SeedClinical(context.Background(), db, schema.Default()); err != nil {
		return fmt.Errorf("failed to seed fixture database: %w", err)
	}
	return nil
}

// executeSteps runs every step in order and records it in the trace.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		body, err := stepBody(step)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}

		event := TraceEvent{Step: i, Name: step.Name}

		if plan, err := h.planner.Plan(body); err == nil {
			event.SQL = plan.SQL
			event.Params = plan.Params
		}

		res, err := h.exec.Query(ctx, body)
		if err != nil {
			event.Outcome = outcomeOf(err)
			event.Message = engine.MessageOf(err)
		} else {
			event.Outcome = OutcomeOK
			event.Table = res.Table
			event.Count = res.Count
			event.Rows = res.Rows
		}
		result.AddEvent(event)

		if step.Expect != nil {
			for _, msg := range checkExpect(event, step.Expect) {
				result.AddError(fmt.Sprintf("step %q: %s", step.Name, msg))
			}
		}

		h.logger.Info("step completed",
			"step", i,
			"name", step.Name,
			"outcome", event.Outcome,
			"count", event.Count,
		)
	}
	return nil
}

func stepBody(step Step) ([]byte, error) {
	if step.Body != "" {
		return []byte(step.Body), nil
	}
	body, err := json.Marshal(step.Request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}

func outcomeOf(err error) string {
	switch {
	case engine.IsMalformedTimestamp(err):
		return OutcomeMalformedTimestamp
	case engine.IsValidationError(err):
		return OutcomeValidation
	default:
		return OutcomeExecution
	}
}
