package sqlite

import (
	"log/slog"

	"github.com/tabular-ai/sqlgate/pkg/datasource"
)

func init() {
	datasource.Register("sqlite", func(logger *slog.Logger) datasource.Engine {
		return New(logger)
	})
}
