// Package sqlbase provides common database/sql functionality for embedded
// engines. Embed BaseEngine in concrete engine implementations to get
// standard DB access, frame promotion, and Close behavior.
package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// TypeMapper names the engine-native column type for a Go value. It must
// handle int64, float64, bool, time.Time, and string; Fallback covers
// columns with no non-nil values.
type TypeMapper struct {
	Integer  string
	Float    string
	Boolean  string
	Datetime string
	Text     string
}

// BaseEngine provides the shared engine mechanics over database/sql.
type BaseEngine struct {
	Handle *sql.DB
	Logger *slog.Logger
	Types  TypeMapper
}

// DB returns the open handle.
func (b *BaseEngine) DB() *sql.DB {
	return b.Handle
}

// Close closes the private instance.
func (b *BaseEngine) Close() error {
	if b.Handle == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing embedded engine")
	}
	err := b.Handle.Close()
	b.Handle = nil
	return err
}

// QuoteIdent quotes an identifier with ANSI double quotes. Both supported
// engines accept this form.
func (b *BaseEngine) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTable registers a frame as a table: column types are inferred from
// the first non-nil value per column, the table is created, and rows are
// inserted inside one transaction.
func (b *BaseEngine) CreateTable(ctx context.Context, table string, frame core.Frame) error {
	if b.Handle == nil {
		return fmt.Errorf("engine not opened")
	}

	quoted := b.QuoteIdent(table)

	defs := make([]string, len(frame.Columns))
	for i, name := range frame.Columns {
		defs[i] = fmt.Sprintf("%s %s", b.QuoteIdent(name), b.columnType(frame, i))
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))
	if _, err := b.Handle.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if len(frame.Rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(frame.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, strings.Join(placeholders, ", "))

	tx, err := b.Handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range frame.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inserts: %w", err)
	}

	if b.Logger != nil {
		b.Logger.Debug("frame registered", "table", table, "rows", len(frame.Rows))
	}
	return nil
}

// columnType infers the engine-native type of column i from the first
// non-nil cell. Columns that are entirely NULL get the text type.
func (b *BaseEngine) columnType(frame core.Frame, i int) string {
	for _, row := range frame.Rows {
		switch row[i].(type) {
		case nil:
			continue
		case int, int32, int64:
			return b.Types.Integer
		case float32, float64:
			return b.Types.Float
		case bool:
			return b.Types.Boolean
		case time.Time:
			return b.Types.Datetime
		default:
			return b.Types.Text
		}
	}
	return b.Types.Text
}
