package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReleased is returned by any DataSource call made after Release.
var ErrReleased = errors.New("data source has been released")

// CleanError reports query text that could not be salvaged by cleaning.
type CleanError struct {
	Message  string
	Fragment string
}

func (e *CleanError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("cannot clean query: %s (near %q)", e.Message, e.Fragment)
	}
	return fmt.Sprintf("cannot clean query: %s", e.Message)
}

// NotSelectError reports a query whose leading token is not SELECT when
// SELECT-only mode was requested.
type NotSelectError struct {
	Token string
}

func (e *NotSelectError) Error() string {
	return fmt.Sprintf("query must start with SELECT, got %q", e.Token)
}

// PolicyClass distinguishes the two keyword sets enforced by the guard.
type PolicyClass string

const (
	// PolicyAlwaysBlocked covers schema/permission-mutating and
	// session-control verbs. Never re-enabled.
	PolicyAlwaysBlocked PolicyClass = "always-blocked"
	// PolicyUpdateBlocked covers row-mutating verbs, blocked by default
	// but re-enabled via explicit opt-in.
	PolicyUpdateBlocked PolicyClass = "update-blocked"
)

// PolicyError reports a query rejected for a structurally mutating
// leading keyword.
type PolicyError struct {
	Class   PolicyClass
	Keyword string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("query blocked by policy: %s statement %q is not allowed", e.Class, strings.ToUpper(e.Keyword))
}

// TableNotFoundError is raised at construction time when the target table
// of an external connection does not exist.
type TableNotFoundError struct {
	Table string
	Err   error
}

func (e *TableNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("table %q not found: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %q not found", e.Table)
}

func (e *TableNotFoundError) Unwrap() error { return e.Err }

// ColumnMismatchError reports a result that dropped columns required by the
// column contract. Missing preserves the table's native column order.
type ColumnMismatchError struct {
	Table   string
	Missing []string
}

func (e *ColumnMismatchError) Error() string {
	return fmt.Sprintf("result is missing required columns from %q: %s", e.Table, strings.Join(e.Missing, ", "))
}

// ExecError wraps a genuine backend failure (unknown column, syntax error
// in the statement body). It is never converted into a default result.
type ExecError struct {
	Query string
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// UnknownEngineError is returned when an embedded engine name is outside
// the registered allow-list.
type UnknownEngineError struct {
	Name      string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown embedded engine %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
