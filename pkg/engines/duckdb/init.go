package duckdb

import (
	"log/slog"

	"github.com/tabular-ai/sqlgate/pkg/datasource"
)

func init() {
	datasource.Register("duckdb", func(logger *slog.Logger) datasource.Engine {
		return New(logger)
	})
}
