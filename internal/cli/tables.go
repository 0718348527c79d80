package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/chartquery/internal/schema"
)

// TableInfo describes one registered table.
type TableInfo struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	TimeColumn  string   `json:"time_column,omitempty"`
	OrderColumn string   `json:"order_column"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tables",
		Short:         "List the queryable tables",
		Long:          "List every whitelisted table with its columns and ordering column.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
	tables := schema.Default().Tables()
	infos := make([]TableInfo, 0, len(tables))
	for _, t := range tables {
		infos = append(infos, TableInfo{
			Name:        t.Name,
			Columns:     t.Columns,
			TimeColumn:  t.TimeColumn,
			OrderColumn: t.OrderColumn(),
		})
	}

	if opts.Format == "json" {
		return newFormatter(opts, cmd).Success(infos)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tORDER BY\tRANGE FILTER\tCOLUMNS")
	for _, info := range infos {
		rangeFilter := "no"
		if info.TimeColumn != "" {
			rangeFilter = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", info.Name, info.OrderColumn, rangeFilter, len(info.Columns))
		if opts.Verbose {
			fmt.Fprintf(tw, "\t\t\t%s\n", strings.Join(info.Columns, ", "))
		}
	}
	return tw.Flush()
}
