// Package sqlclean normalizes raw candidate SQL text before it reaches the
// policy guard and a backend. LLM-authored queries arrive with stray
// comments, trailing terminators, smart punctuation, and sometimes truncated
// literals; cleaning is tolerant of all of these and idempotent, so
// Clean(Clean(q)) == Clean(q) for every query that cleans successfully.
package sqlclean

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// Options controls optional cleaning behavior.
type Options struct {
	// EnforceSelect requires the first token of the cleaned query to be
	// SELECT (case-insensitive). A leading "(" is skipped.
	EnforceSelect bool
}

// Result is the outcome of a successful clean. Warnings record recoverable
// irregularities; they never block execution.
type Result struct {
	Query    string
	Warnings []core.Warning
}

// Empty reports that nothing executable remained after cleaning.
// Downstream this is defined as the identity query, not an error.
func (r Result) Empty() bool {
	return r.Query == ""
}

// Clean normalizes raw query text: comment and terminator handling,
// quote/paren repair, and removal of characters that break SQL syntax.
func Clean(raw string, opts Options) (Result, error) {
	if !utf8.ValidString(raw) {
		return Result{}, &core.CleanError{Message: "query text is not valid UTF-8"}
	}

	var warnings []core.Warning

	text, stripped := stripUnsupported(raw)
	if stripped {
		warnings = append(warnings, core.Warning{
			Code:    core.WarnStrippedChars,
			Message: "removed control characters or smart punctuation",
		})
	}

	text = stripComments(text)

	text, termWarnings := truncateStatements(text)
	warnings = append(warnings, termWarnings...)

	text, quoteWarning := repairQuotes(text)
	if quoteWarning != nil {
		warnings = append(warnings, *quoteWarning)
	}

	text, parenWarning := repairParens(text)
	if parenWarning != nil {
		warnings = append(warnings, *parenWarning)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Warnings: warnings}, nil
	}

	if opts.EnforceSelect {
		token := leadingToken(text)
		if !strings.EqualFold(token, "select") {
			return Result{}, &core.NotSelectError{Token: token}
		}
	}

	return Result{Query: text, Warnings: warnings}, nil
}

// smartPunctuation are substitutions (typically from chat rendering) that
// break SQL syntax. They are removed outright, never mapped to an ASCII
// look-alike: a mapped quote could silently change string boundaries.
var smartPunctuation = map[rune]struct{}{
	'‘': {}, // left single quote
	'’': {}, // right single quote
	'“': {}, // left double quote
	'”': {}, // right double quote
	'–': {}, // en dash
	'—': {}, // em dash
	' ': {}, // no-break space
	'​': {}, // zero-width space
	'‌': {}, // zero-width non-joiner
	'‍': {}, // zero-width joiner
	'\uFEFF': {}, // BOM
}

// stripUnsupported removes non-printable control characters (preserving
// space, tab, and newlines) and known smart punctuation.
func stripUnsupported(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	stripped := false
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			stripped = true
			continue
		}
		if _, bad := smartPunctuation[r]; bad {
			stripped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), stripped
}

// scanState tracks where the scanner is inside query text.
type scanState int

const (
	stateNormal scanState = iota
	stateSingleQuote
	stateDoubleQuote
)

// stripComments removes -- line comments and /* */ block comments with
// correct nesting. Comment markers inside quoted strings are literal text.
// Each removed comment is replaced by a single space so adjacent tokens
// do not glue together. An unterminated block comment runs to end of input.
func stripComments(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	state := stateNormal
	depth := 0 // block comment nesting depth
	i := 0
	for i < len(runes) {
		r := runes[i]

		if depth > 0 {
			switch {
			case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
				depth++
				i += 2
			case r == '*' && i+1 < len(runes) && runes[i+1] == '/':
				depth--
				i += 2
				if depth == 0 {
					b.WriteRune(' ')
				}
			default:
				i++
			}
			continue
		}

		switch state {
		case stateSingleQuote:
			b.WriteRune(r)
			if r == '\'' {
				// '' is the ANSI escape for a literal quote.
				if i+1 < len(runes) && runes[i+1] == '\'' {
					b.WriteRune('\'')
					i++
				} else {
					state = stateNormal
				}
			}
			i++
		case stateDoubleQuote:
			b.WriteRune(r)
			if r == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					b.WriteRune('"')
					i++
				} else {
					state = stateNormal
				}
			}
			i++
		default:
			switch {
			case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
				// Line comment: skip to end of line, keep the newline.
				for i < len(runes) && runes[i] != '\n' {
					i++
				}
				b.WriteRune(' ')
			case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
				depth = 1
				i += 2
			case r == '\'':
				state = stateSingleQuote
				b.WriteRune(r)
				i++
			case r == '"':
				state = stateDoubleQuote
				b.WriteRune(r)
				i++
			default:
				b.WriteRune(r)
				i++
			}
		}
	}
	return b.String()
}

// truncateStatements enforces the anti statement-stacking policy: only the
// first statement survives. Trailing terminator runs collapse to nothing;
// a single trailing semicolon is expected LLM output and passes silently.
func truncateStatements(s string) (string, []core.Warning) {
	runes := []rune(s)
	state := stateNormal
	split := -1
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch state {
		case stateSingleQuote:
			if r == '\'' {
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			if r == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					i++
				} else {
					state = stateNormal
				}
			}
		default:
			switch r {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			case ';':
				if split < 0 {
					split = i
				}
			}
		}
	}

	if split < 0 {
		return s, nil
	}

	head := string(runes[:split])
	tail := runes[split:]

	terminators := 0
	extraContent := false
	for _, r := range tail {
		switch {
		case r == ';':
			terminators++
		case strings.ContainsRune(" \t\r\n", r):
			// whitespace between terminators is fine
		default:
			extraContent = true
		}
		if extraContent {
			break
		}
	}

	var warnings []core.Warning
	switch {
	case extraContent:
		warnings = append(warnings, core.Warning{
			Code:    core.WarnMultipleStatements,
			Message: "multiple statements truncated to the first",
		})
	case terminators > 1:
		warnings = append(warnings, core.Warning{
			Code:    core.WarnExtraTerminators,
			Message: fmt.Sprintf("collapsed %d trailing statement terminators", terminators),
		})
	}
	return head, warnings
}

// repairQuotes closes an unterminated string literal or quoted identifier,
// a common artifact of truncated LLM output.
func repairQuotes(s string) (string, *core.Warning) {
	runes := []rune(s)
	state := stateNormal
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch state {
		case stateSingleQuote:
			if r == '\'' {
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			if r == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					i++
				} else {
					state = stateNormal
				}
			}
		default:
			if r == '\'' {
				state = stateSingleQuote
			} else if r == '"' {
				state = stateDoubleQuote
			}
		}
	}

	switch state {
	case stateSingleQuote:
		return s + "'", &core.Warning{Code: core.WarnUnbalancedQuote, Message: "appended missing closing single quote"}
	case stateDoubleQuote:
		return s + `"`, &core.Warning{Code: core.WarnUnbalancedQuote, Message: "appended missing closing double quote"}
	default:
		return s, nil
	}
}

// repairParens appends missing closing parentheses when the net depth is
// positive. Negative depth (a stray closer) is left for the backend to
// reject with a real syntax error.
func repairParens(s string) (string, *core.Warning) {
	runes := []rune(s)
	state := stateNormal
	depth := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch state {
		case stateSingleQuote:
			if r == '\'' {
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			if r == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					i++
				} else {
					state = stateNormal
				}
			}
		default:
			switch r {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			case '(':
				depth++
			case ')':
				depth--
			}
		}
	}

	if depth <= 0 {
		return s, nil
	}
	return s + strings.Repeat(")", depth), &core.Warning{
		Code:    core.WarnUnbalancedParens,
		Message: fmt.Sprintf("appended %d missing closing parentheses", depth),
	}
}

// leadingToken returns the first keyword-shaped token of the query,
// skipping whitespace and opening parentheses.
func leadingToken(s string) string {
	start := -1
	for i, r := range s {
		if start < 0 {
			if r == '(' || strings.ContainsRune(" \t\r\n", r) {
				continue
			}
			start = i
		}
		if !isTokenRune(r) {
			if i > start {
				return s[start:i]
			}
			return string(r)
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

func isTokenRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
