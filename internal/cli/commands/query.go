package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabular-ai/sqlgate/pkg/sqlclean"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	SourceOptions
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Execute SQL against a table through the safety gateway",
		Long: `Execute candidate SQL text against a data source.

The query travels the full gateway pipeline: cleaning (comments,
terminators, quote/paren repair), the read-only policy check, and
backend execution. Without SQL the whole table is returned.`,
		Example: `  # Query a CSV file in an embedded engine
  sqlgate query --csv sales.csv "SELECT region, sum(amount) FROM sales GROUP BY region"

  # Query a Postgres table
  sqlgate query --dsn postgres://localhost/shop --table orders "SELECT * FROM orders LIMIT 10"

  # No SQL: the identity query (all rows, all columns)
  sqlgate query --csv sales.csv

  # Output as JSON
  sqlgate query --csv sales.csv "SELECT * FROM sales" -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	AddSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	ctx := cmd.Context()

	var rawSQL string
	switch {
	case len(args) > 0:
		rawSQL = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		rawSQL = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		rawSQL = string(content)
	}

	// Surface cleaning warnings before execution; the source re-cleans
	// internally (cleaning is idempotent).
	if rawSQL != "" {
		cleaned, err := sqlclean.Clean(rawSQL, sqlclean.Options{})
		if err != nil {
			return err
		}
		for _, w := range cleaned.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
	}

	src, err := OpenSource(ctx, cmd, &opts.SourceOptions)
	if err != nil {
		return err
	}
	defer func() { _ = src.Release() }()

	result, err := src.Execute(ctx, rawSQL)
	if err != nil {
		return err
	}

	return renderResult(cmd.OutOrStdout(), result, ConfigFrom(ctx).Output)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
