// Package datasource provides the gateway's backend abstraction: one
// queryable rectangular table behind a shared operation contract,
// regardless of whether it lives in a private embedded engine or behind a
// caller-supplied external connection.
//
// Every query travels the same pipeline: clean, guard, backend execution,
// materialized result. Backend failures propagate as typed errors; they are
// never converted into a default or unfiltered result.
package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tabular-ai/sqlgate/pkg/core"
	"github.com/tabular-ai/sqlgate/pkg/sqlclean"
	"github.com/tabular-ai/sqlgate/pkg/sqlguard"
)

// DataSource is the shared contract over one queryable table.
//
// Lifecycle: Constructed -> Validated (existence confirmed) -> Active ->
// Released (terminal). Instances are single-owner: one logical session
// issues queries at a time, and all calls are synchronous.
type DataSource interface {
	// Identifier returns the table name or catalog-qualified identifier.
	Identifier() string

	// Columns returns the ordered column set snapshotted at validation.
	Columns() []core.Column

	// Execute runs raw query text through clean -> guard -> backend and
	// materializes the result. Empty or comment-only text executes the
	// identity query (all rows, all columns, native order).
	Execute(ctx context.Context, query string) (*core.Result, error)

	// FetchRow is Execute with a single-row cap applied at the query
	// planning level. With requireAllColumns, the result's column set
	// must be a superset of the table's original columns.
	FetchRow(ctx context.Context, query string, requireAllColumns bool) (*core.Result, error)

	// FetchAll returns the whole table (the identity query).
	FetchAll(ctx context.Context) (*core.Result, error)

	// Release frees owned backend resources exactly once. Idempotent;
	// any contract call after Release returns core.ErrReleased.
	Release() error
}

// baseSource carries the pipeline shared by both backend variants.
type baseSource struct {
	id       string
	ident    string // identifier as given by the caller
	sqlIdent string // identifier as interpolated into SQL
	cols     []core.Column
	db       *sql.DB
	policy sqlguard.Policy
	logger *slog.Logger

	released    atomic.Bool
	releaseOnce sync.Once
	closers     []func() error
}

func newBaseSource(ident string, db *sql.DB, opts *options) *baseSource {
	id := uuid.NewString()
	return &baseSource{
		id:       id,
		ident:    ident,
		sqlIdent: ident,
		db:       db,
		policy:   opts.policy,
		logger:   opts.logger.With("source_id", id[:8], "table", ident),
	}
}

func (s *baseSource) Identifier() string {
	return s.ident
}

func (s *baseSource) Columns() []core.Column {
	cols := make([]core.Column, len(s.cols))
	copy(cols, s.cols)
	return cols
}

// identityQuery is the defined meaning of an empty cleaned query.
func (s *baseSource) identityQuery() string {
	return fmt.Sprintf("SELECT * FROM %s", s.sqlIdent) //nolint:gosec // identifier validated at construction
}

// prepare runs the clean and guard stages and resolves the effective query.
func (s *baseSource) prepare(raw string) (string, error) {
	cleaned, err := sqlclean.Clean(raw, sqlclean.Options{})
	if err != nil {
		return "", err
	}
	for _, w := range cleaned.Warnings {
		s.logger.Warn("query cleaning", "code", string(w.Code), "detail", w.Message)
	}

	query := cleaned.Query
	if cleaned.Empty() {
		query = s.identityQuery()
	}

	if err := s.policy.Validate(query); err != nil {
		return "", err
	}
	return query, nil
}

func (s *baseSource) Execute(ctx context.Context, raw string) (*core.Result, error) {
	if s.released.Load() {
		return nil, core.ErrReleased
	}
	query, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, query)
}

func (s *baseSource) FetchRow(ctx context.Context, raw string, requireAllColumns bool) (*core.Result, error) {
	if s.released.Load() {
		return nil, core.ErrReleased
	}
	query, err := s.prepare(raw)
	if err != nil {
		return nil, err
	}

	// The cap lives in the plan, not in post-hoc truncation.
	capped := fmt.Sprintf("SELECT * FROM (%s) AS one_row_probe LIMIT 1", query)
	result, err := s.run(ctx, capped)
	if err != nil {
		return nil, err
	}

	if requireAllColumns {
		if err := ValidateColumnContract(s.ident, s.cols, result.Columns); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *baseSource) FetchAll(ctx context.Context) (*core.Result, error) {
	if s.released.Load() {
		return nil, core.ErrReleased
	}
	return s.run(ctx, s.identityQuery())
}

// run executes a validated query and materializes every row.
func (s *baseSource) run(ctx context.Context, query string) (*core.Result, error) {
	s.logger.Debug("executing query", "query", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &core.ExecError{Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	result, err := materialize(rows)
	if err != nil {
		return nil, &core.ExecError{Query: query, Err: err}
	}
	s.logger.Debug("query complete", "rows", result.RowCount())
	return result, nil
}

func (s *baseSource) Release() error {
	var err error
	s.releaseOnce.Do(func() {
		s.released.Store(true)
		s.logger.Debug("releasing data source")
		for _, closer := range s.closers {
			if cerr := closer(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// materialize drains sql.Rows into a Result, normalizing []byte to string.
func materialize(rows *sql.Rows) (*core.Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &core.Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return result, nil
}

// probeColumns snapshots the ordered column set of a table without reading
// any rows. The zero-row predicate doubles as the existence check for
// external connections.
func probeColumns(ctx context.Context, db *sql.DB, ident string) ([]core.Column, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE 1=0", ident) //nolint:gosec // identifier supplied at construction
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cols := make([]core.Column, len(types))
	for i, ct := range types {
		cols[i] = core.Column{
			Name:       ct.Name(),
			NativeType: ct.DatabaseTypeName(),
			Position:   i + 1,
		}
	}
	return cols, nil
}
