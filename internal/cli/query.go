package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Body string // request JSON; read from stdin when empty
	Plan bool   // print SQL and parameters without executing
}

// PlanOutput is what query --plan prints.
type PlanOutput struct {
	Table  string `json:"table"`
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
	Limit  int    `json:"limit"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one filter request",
		Long: `Run one filter request against the configured database and print
{table, count, rows}.

The request is the same JSON body POST /query accepts. It is read from
--body, or from stdin when --body is not given.

Exit codes:
  0 - Query succeeded (possibly with no rows)
  1 - Request rejected or query failed
  2 - Command error (configuration, unreadable input)

Examples:
  chartquery query --body '{"table":"Vitals","patient_id":"P001","latest":true,"limit":5}'
  echo '{"table":"Patient"}' | chartquery query --format json
  chartquery query --plan --body '{"table":"LabResult","from":"2024-01-01"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "", "request JSON (default: read stdin)")
	cmd.Flags().BoolVar(&opts.Plan, "plan", false, "print the SQL and parameters without executing")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	body, err := requestBody(opts.Body, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read request", err)
	}

	rt, err := loadRuntime(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if opts.Plan {
		plan, err := rt.engine.Plan(body)
		if err != nil {
			return formatter.QueryError(err)
		}
		params := plan.Params
		if params == nil {
			params = []any{}
		}
		return formatter.Success(PlanOutput{
			Table:  plan.Table,
			SQL:    plan.SQL,
			Params: params,
			Limit:  plan.Select.Limit,
		})
	}

	result, err := rt.engine.Query(cmd.Context(), body)
	if err != nil {
		return formatter.QueryError(err)
	}
	formatter.VerboseLog("%d row(s) from %s", result.Count, result.Table)
	return formatter.Success(result)
}

// requestBody returns flag when set, else all of stdin.
func requestBody(flag string, stdin io.Reader) ([]byte, error) {
	if flag != "" {
		return []byte(flag), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("no request body: pass --body or pipe JSON on stdin")
	}
	return data, nil
}
