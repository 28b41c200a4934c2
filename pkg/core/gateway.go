// Package core defines the domain types shared by every layer of the
// SQL gateway: column descriptors, in-memory frames, materialized results,
// cleaner warnings, and the typed error kinds consumed by orchestrating
// tool layers.
//
// The Golden Rule: pkg/core imports ONLY the standard library.
package core

import "fmt"

// SemanticType is the gateway's five-type view of a column, independent of
// any backend's native type system.
type SemanticType string

const (
	TypeInteger  SemanticType = "INTEGER"
	TypeFloat    SemanticType = "FLOAT"
	TypeBoolean  SemanticType = "BOOLEAN"
	TypeDatetime SemanticType = "DATETIME"
	TypeText     SemanticType = "TEXT"
)

// Column describes one column of a queryable table.
type Column struct {
	Name       string
	NativeType string
	Semantic   SemanticType
	Position   int
}

// Frame is a caller-supplied in-memory rectangular value, promoted into a
// registered table by an embedded-engine source. Rows are row-major; a nil
// cell is a SQL NULL.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// Validate checks that the frame is rectangular with unique, non-empty
// column names.
func (f Frame) Validate() error {
	if len(f.Columns) == 0 {
		return fmt.Errorf("frame has no columns")
	}
	seen := make(map[string]struct{}, len(f.Columns))
	for i, name := range f.Columns {
		if name == "" {
			return fmt.Errorf("frame column %d has empty name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("frame has duplicate column %q", name)
		}
		seen[name] = struct{}{}
	}
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("frame row %d has %d values, want %d", i, len(row), len(f.Columns))
		}
	}
	return nil
}

// Result is a fully materialized query result. Every row holds exactly
// len(Columns) values and column order is stable across repeated calls
// against an unchanged table.
type Result struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// HasColumn reports whether the result contains a column with the given name.
func (r *Result) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// WarningCode identifies a non-fatal irregularity found while cleaning
// candidate query text.
type WarningCode string

const (
	WarnMultipleStatements WarningCode = "multiple_statements_truncated"
	WarnExtraTerminators   WarningCode = "extra_terminators"
	WarnUnbalancedQuote    WarningCode = "unbalanced_quote_repaired"
	WarnUnbalancedParens   WarningCode = "unbalanced_parens_repaired"
	WarnStrippedChars      WarningCode = "unsupported_characters_stripped"
)

// Warning is a recoverable irregularity; the query still executes.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
