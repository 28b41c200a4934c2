package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabular-ai/sqlgate/pkg/schemainfo"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SourceOptions{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Derive the prompt-facing schema description of a table",
		Long: `Print the textual schema block used for prompt assembly: one line per
column with its semantic type, plus categorical value sets for
low-cardinality text columns and [min, max] ranges for numeric and
datetime columns.`,
		Example: `  sqlgate schema --csv sales.csv
  sqlgate schema --dsn postgres://localhost/shop --table orders --categorical-threshold 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			src, err := OpenSource(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = src.Release() }()

			block, err := schemainfo.Inspect(ctx, src, schemainfo.Options{
				CategoricalThreshold: ConfigFrom(ctx).CategoricalThreshold,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), block)
			return nil
		},
	}

	AddSourceFlags(cmd, opts)
	return cmd
}
