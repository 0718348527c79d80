package cli

import (
	"github.com/spf13/cobra"
)

// ProbeOptions holds flags for the probe command.
type ProbeOptions struct {
	*RootOptions
	Table string // defaults to TEST_TABLE
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProbeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check database connectivity by reading one row",
		Long: `Connect with the configured credentials and read a single row from a
registered table. Prints {table, row}; row is null when the table is empty.

The table defaults to TEST_TABLE (Patient when unset).

Exit codes:
  0 - Connected and read
  1 - Connection, query or table lookup failed
  2 - Command error (configuration)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to read (default $TEST_TABLE)")

	return cmd
}

func runProbe(opts *ProbeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	rt, err := loadRuntime(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	table := opts.Table
	if table == "" {
		table = rt.cfg.TestTable
	}
	formatter.VerboseLog("probing %s (%s)", table, rt.cfg.Database.Backend)

	result, err := rt.engine.Probe(cmd.Context(), table)
	if err != nil {
		return formatter.QueryError(err)
	}
	return formatter.Success(result)
}
