package commands

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabular-ai/sqlgate/internal/csvload"
	"github.com/tabular-ai/sqlgate/pkg/datasource"
	"github.com/tabular-ai/sqlgate/pkg/sqlguard"

	// Compiled-in embedded engines.
	_ "github.com/tabular-ai/sqlgate/pkg/engines/duckdb"
	_ "github.com/tabular-ai/sqlgate/pkg/engines/sqlite"

	// Postgres driver for external connections.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// SourceOptions holds the flags shared by commands that need a table.
type SourceOptions struct {
	CSV   string
	DSN   string
	Table string
}

// AddSourceFlags registers the shared source flags on a command.
func AddSourceFlags(cmd *cobra.Command, opts *SourceOptions) {
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "CSV file to load into a private embedded engine")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Postgres connection string for an external table")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Table name (defaults to the CSV file name; required with --dsn)")
}

// OpenSource builds a DataSource from the shared flags: a CSV promoted into
// an embedded engine, or a table behind an external Postgres connection.
func OpenSource(ctx context.Context, cmd *cobra.Command, opts *SourceOptions) (datasource.DataSource, error) {
	cfg := ConfigFrom(ctx)
	logger := LoggerFrom(ctx)
	policy := sqlguard.Policy{AllowWrites: cfg.AllowWrites}

	switch {
	case opts.CSV != "" && opts.DSN != "":
		return nil, fmt.Errorf("--csv and --dsn are mutually exclusive")

	case opts.CSV != "":
		frame, err := csvload.Load(opts.CSV)
		if err != nil {
			return nil, err
		}
		table := opts.Table
		if table == "" {
			table = tableNameFromPath(opts.CSV)
		}
		return datasource.NewEmbedded(ctx, table, frame,
			datasource.WithEngine(cfg.Engine),
			datasource.WithPolicy(policy),
			datasource.WithLogger(logger),
		)

	case opts.DSN != "":
		if opts.Table == "" {
			return nil, fmt.Errorf("--table is required with --dsn")
		}
		db, err := sql.Open("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open connection: %w", err)
		}
		src, err := datasource.NewExternal(ctx, db, opts.Table,
			datasource.WithPolicy(policy),
			datasource.WithLogger(logger),
			datasource.WithOwnedConnection(), // this command opened it
		)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return src, nil

	default:
		return nil, fmt.Errorf("a data source is required: use --csv or --dsn (see %s --help)", cmd.CommandPath())
	}
}

// tableNameFromPath derives a table name from a CSV file name.
func tableNameFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return "data"
	}
	return strings.ReplaceAll(name, "-", "_")
}
