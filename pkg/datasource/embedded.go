package datasource

import (
	"context"
	"fmt"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// embeddedSource promotes a caller-supplied in-memory frame into a table
// registered inside a private embedded engine instance that the source
// owns and releases.
type embeddedSource struct {
	*baseSource
	engine Engine
}

// NewEmbedded constructs an embedded-engine data source. The engine is
// resolved once, at construction, with precedence explicit WithEngine >
// SetDefaultEngine > built-in default; names outside the registered
// allow-list fail here, before any engine state exists.
func NewEmbedded(ctx context.Context, table string, frame core.Frame, opts ...Option) (DataSource, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("invalid frame for table %q: %w", table, err)
	}

	o := applyOptions(opts)

	factory, err := resolveEngine(o.engine)
	if err != nil {
		return nil, err
	}

	engine := factory(o.logger)
	if err := engine.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s engine: %w", engine.Name(), err)
	}

	if err := engine.CreateTable(ctx, table, frame); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("failed to register table %q: %w", table, err)
	}

	quoted := engine.QuoteIdent(table)
	cols, err := probeColumns(ctx, engine.DB(), quoted)
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("failed to validate registered table %q: %w", table, err)
	}

	base := newBaseSource(table, engine.DB(), o)
	base.sqlIdent = quoted
	base.closers = append(base.closers, engine.Close)
	base.logger = base.logger.With("engine", engine.Name())
	base.cols = cols
	base.logger.Debug("embedded source ready", "columns", len(cols), "rows", len(frame.Rows))

	return &embeddedSource{baseSource: base, engine: engine}, nil
}
