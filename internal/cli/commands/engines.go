package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabular-ai/sqlgate/pkg/datasource"

	_ "github.com/tabular-ai/sqlgate/pkg/engines/duckdb"
	_ "github.com/tabular-ai/sqlgate/pkg/engines/sqlite"
)

// NewEnginesCommand creates the engines command.
func NewEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the available embedded engines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range datasource.Engines() {
				marker := ""
				if name == datasource.BuiltinDefaultEngine {
					marker = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, marker)
			}
			return nil
		},
	}
}
