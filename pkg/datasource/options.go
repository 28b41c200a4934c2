package datasource

import (
	"log/slog"

	"github.com/tabular-ai/sqlgate/pkg/sqlguard"
)

type options struct {
	engine    string
	policy    sqlguard.Policy
	policySet bool
	logger    *slog.Logger
	ownConn   bool
}

// Option configures a data source at construction.
type Option func(*options)

// WithEngine selects the embedded engine by registry name
// (case-insensitive). Takes precedence over the process-wide default.
// Ignored by external-connection sources.
func WithEngine(name string) Option {
	return func(o *options) { o.engine = name }
}

// WithPolicy overrides the guard policy. Without it, sources use
// sqlguard.Default(), which honors the SQLGATE_ALLOW_WRITES toggle.
func WithPolicy(p sqlguard.Policy) Option {
	return func(o *options) {
		o.policy = p
		o.policySet = true
	}
}

// WithLogger attaches a structured logger. Nil or absent means discard.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOwnedConnection makes an external source close the caller-supplied
// connection handle on Release. By default the handle's lifecycle stays
// with the caller.
func WithOwnedConnection() Option {
	return func(o *options) { o.ownConn = true }
}

func applyOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if !o.policySet {
		o.policy = sqlguard.Default()
	}
	return o
}
