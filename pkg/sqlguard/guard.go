// Package sqlguard enforces the read-only/mutation policy over cleaned
// query text. This is a hard security boundary: the guard raises or passes,
// it never warns and never rewrites the query.
//
// Matching is deliberately conservative. Only the leading keyword token of
// the trimmed statement is inspected, so a keyword appearing inside an
// identifier or string literal (SELECT update_count FROM delete_logs) is
// never a violation.
package sqlguard

import (
	"os"
	"strings"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// EnvAllowWrites is the environment toggle that re-enables the
// update-blocked keyword set. The always-blocked set cannot be re-enabled.
const EnvAllowWrites = "SQLGATE_ALLOW_WRITES"

// alwaysBlocked are schema/permission-mutating and session-control verbs.
var alwaysBlocked = map[string]struct{}{
	"drop":     {},
	"alter":    {},
	"create":   {},
	"truncate": {},
	"delete":   {},
	"grant":    {},
	"revoke":   {},
	"exec":     {},
	"execute":  {},
	"call":     {},
	"attach":   {},
	"detach":   {},
	"pragma":   {},
	"set":      {},
	"vacuum":   {},
	"copy":     {},
	"import":   {},
	"install":  {},
	"load":     {},
}

// updateBlocked are row-mutating verbs, blocked unless explicitly opted in.
var updateBlocked = map[string]struct{}{
	"insert":  {},
	"update":  {},
	"merge":   {},
	"replace": {},
	"upsert":  {},
}

// Policy configures the guard.
type Policy struct {
	// AllowWrites re-enables the update-blocked set (insert/update/merge/
	// replace/upsert). It has no effect on the always-blocked set.
	AllowWrites bool
}

// Default returns the policy with writes disabled, honoring the
// SQLGATE_ALLOW_WRITES environment toggle.
func Default() Policy {
	return Policy{AllowWrites: ParseToggle(os.Getenv(EnvAllowWrites))}
}

// ParseToggle interprets a boolean-like setting value. "1", "true" and
// "yes" (case-insensitive) are truthy; everything else is false.
func ParseToggle(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// Validate checks the leading keyword of a cleaned query against the
// policy. A nil return means the query may proceed unchanged; otherwise
// the error is a *core.PolicyError carrying the class and keyword.
// An empty query passes: downstream it is defined as the identity query.
func (p Policy) Validate(query string) error {
	token := strings.ToLower(leadingToken(query))
	if token == "" {
		return nil
	}
	if _, blocked := alwaysBlocked[token]; blocked {
		return &core.PolicyError{Class: core.PolicyAlwaysBlocked, Keyword: token}
	}
	if _, blocked := updateBlocked[token]; blocked && !p.AllowWrites {
		return &core.PolicyError{Class: core.PolicyUpdateBlocked, Keyword: token}
	}
	return nil
}

// leadingToken extracts the first keyword-shaped token, skipping whitespace
// and opening parentheses. Keyword scanning operates on the cleaned text;
// parenthesis auto-repair only appends trailing closers, so it can never
// change the token seen here.
func leadingToken(s string) string {
	start := -1
	for i, r := range s {
		if start < 0 {
			if r == '(' || r == ' ' || r == '\t' || r == '\r' || r == '\n' {
				continue
			}
			start = i
		}
		if !isKeywordRune(r) {
			if i > start {
				return s[start:i]
			}
			return ""
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

func isKeywordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
