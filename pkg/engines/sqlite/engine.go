// Package sqlite provides the SQLite embedded engine, a pure-Go
// alternative to DuckDB for environments without cgo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tabular-ai/sqlgate/pkg/datasource"
	"github.com/tabular-ai/sqlgate/pkg/engines/sqlbase"

	_ "modernc.org/sqlite" // sqlite driver
)

// Engine implements datasource.Engine over an in-memory SQLite instance.
type Engine struct {
	sqlbase.BaseEngine
}

// New creates a new, unopened SQLite engine instance.
func New(logger *slog.Logger) *Engine {
	return &Engine{
		BaseEngine: sqlbase.BaseEngine{
			Logger: logger,
			Types: sqlbase.TypeMapper{
				Integer:  "INTEGER",
				Float:    "REAL",
				Boolean:  "BOOLEAN",
				Datetime: "DATETIME",
				Text:     "TEXT",
			},
		},
	}
}

// Name returns the registry name.
func (e *Engine) Name() string {
	return "sqlite"
}

// Open creates the private in-memory instance.
func (e *Engine) Open(ctx context.Context) error {
	if e.Handle != nil {
		return fmt.Errorf("sqlite engine already opened")
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open sqlite: %w", err)
	}

	// The in-memory database lives per-connection; more than one open
	// connection would see different (empty) databases.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	e.Handle = db
	return nil
}

var _ datasource.Engine = (*Engine)(nil)
