package datasource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// externalSource wraps a caller-supplied, already-open connection handle
// and a target table identifier (plain or catalog-qualified). It does not
// assume ownership of the connection unless WithOwnedConnection is given.
type externalSource struct {
	*baseSource
}

// NewExternal constructs an external-connection data source. Table
// existence is confirmed at construction by a zero-row probe; a failing
// probe raises TableNotFoundError before any query executes.
func NewExternal(ctx context.Context, db *sql.DB, table string, opts ...Option) (DataSource, error) {
	if db == nil {
		return nil, fmt.Errorf("connection handle is required")
	}
	if table == "" {
		return nil, fmt.Errorf("table identifier is required")
	}

	o := applyOptions(opts)

	cols, err := probeColumns(ctx, db, table)
	if err != nil {
		return nil, &core.TableNotFoundError{Table: table, Err: err}
	}

	base := newBaseSource(table, db, o)
	base.cols = cols
	if o.ownConn {
		base.closers = append(base.closers, db.Close)
	}
	base.logger.Debug("external source ready", "columns", len(cols), "owns_connection", o.ownConn)

	return &externalSource{baseSource: base}, nil
}
