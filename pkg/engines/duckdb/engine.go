// Package duckdb provides the DuckDB embedded engine, the gateway's
// built-in default.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tabular-ai/sqlgate/pkg/datasource"
	"github.com/tabular-ai/sqlgate/pkg/engines/sqlbase"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Engine implements datasource.Engine over an in-memory DuckDB instance.
type Engine struct {
	sqlbase.BaseEngine
}

// New creates a new, unopened DuckDB engine instance.
func New(logger *slog.Logger) *Engine {
	return &Engine{
		BaseEngine: sqlbase.BaseEngine{
			Logger: logger,
			Types: sqlbase.TypeMapper{
				Integer:  "BIGINT",
				Float:    "DOUBLE",
				Boolean:  "BOOLEAN",
				Datetime: "TIMESTAMP",
				Text:     "VARCHAR",
			},
		},
	}
}

// Name returns the registry name.
func (e *Engine) Name() string {
	return "duckdb"
}

// Open creates the private in-memory instance.
func (e *Engine) Open(ctx context.Context) error {
	if e.Handle != nil {
		return fmt.Errorf("duckdb engine already opened")
	}

	// An empty path gives an in-memory database private to this handle.
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	e.Handle = db
	return nil
}

var _ datasource.Engine = (*Engine)(nil)
