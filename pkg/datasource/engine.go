package datasource

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// Engine is a private, in-process analytical SQL engine instance capable of
// registering an in-memory table and answering ad hoc queries. Concrete
// engines live in pkg/engines/ subdirectories and register themselves in
// their init() functions.
type Engine interface {
	// Name returns the registry name of the engine (e.g. "duckdb").
	Name() string

	// Open creates the private in-memory instance. An engine is opened
	// exactly once; the owning source closes it on release.
	Open(ctx context.Context) error

	// DB returns the open database handle.
	DB() *sql.DB

	// CreateTable registers a frame as a queryable table.
	CreateTable(ctx context.Context, table string, frame core.Frame) error

	// QuoteIdent quotes an identifier for this engine.
	QuoteIdent(name string) string

	// Close releases the engine instance.
	Close() error
}

// EngineFactory creates a fresh engine instance. The logger may be nil.
type EngineFactory func(logger *slog.Logger) Engine

// BuiltinDefaultEngine is used when neither an explicit engine option nor a
// process-wide default is set.
const BuiltinDefaultEngine = "duckdb"

var (
	registryMu    sync.RWMutex
	registry      = make(map[string]EngineFactory)
	defaultEngine string
)

// Register adds an engine factory to the registry under a case-insensitive
// name. Called by engine implementations in their init() functions.
func Register(name string, factory EngineFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Engines returns all registered engine names (sorted).
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefaultEngine sets the process-wide default engine, validated against
// the registry. The empty string clears the default.
func SetDefaultEngine(name string) error {
	if name == "" {
		registryMu.Lock()
		defaultEngine = ""
		registryMu.Unlock()
		return nil
	}
	lower := strings.ToLower(name)
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[lower]; !ok {
		return &core.UnknownEngineError{Name: name, Available: engineNamesLocked()}
	}
	defaultEngine = lower
	return nil
}

// resolveEngine applies the precedence explicit argument > process-wide
// default > built-in default, once, at source construction.
func resolveEngine(explicit string) (EngineFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	name := strings.ToLower(explicit)
	if name == "" {
		name = defaultEngine
	}
	if name == "" {
		name = BuiltinDefaultEngine
	}

	factory, ok := registry[name]
	if !ok {
		return nil, &core.UnknownEngineError{Name: name, Available: engineNamesLocked()}
	}
	return factory, nil
}

func engineNamesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
