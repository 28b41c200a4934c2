// Package schemainfo derives a prompt-facing textual schema description
// from a data source: semantic column types, categorical value sets for
// low-cardinality text columns, and [min, max] ranges for numeric and
// datetime columns.
//
// The description is deterministic and re-derivable at any time; nothing
// is cached. All probe queries travel the same DataSource pipeline as user
// queries, so they pass the same guard.
package schemainfo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tabular-ai/sqlgate/pkg/core"
	"github.com/tabular-ai/sqlgate/pkg/datasource"
)

// DefaultCategoricalThreshold is the distinct-count cutoff below which a
// text column is reported as a categorical value set.
const DefaultCategoricalThreshold = 12

// NoRangeSentinel is reported for numeric/datetime columns whose values
// are all NULL.
const NoRangeSentinel = "no non-null values"

// Options configures the inspector.
type Options struct {
	// CategoricalThreshold overrides DefaultCategoricalThreshold.
	// Values < 1 mean the default.
	CategoricalThreshold int
}

// Inspect renders the schema block: a header naming the table, then one
// line per column (name and semantic type) plus an optional facet line,
// in native column order.
func Inspect(ctx context.Context, src datasource.DataSource, opts Options) (string, error) {
	threshold := opts.CategoricalThreshold
	if threshold < 1 {
		threshold = DefaultCategoricalThreshold
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", src.Identifier())

	for _, col := range src.Columns() {
		semantic := SemanticOf(col.NativeType)
		fmt.Fprintf(&b, "  - %s (%s)\n", col.Name, semantic)

		switch semantic {
		case core.TypeText:
			values, ok, err := categoricalValues(ctx, src, col.Name, threshold)
			if err != nil {
				return "", fmt.Errorf("failed to inspect column %q: %w", col.Name, err)
			}
			if ok {
				fmt.Fprintf(&b, "    values: %s\n", strings.Join(values, ", "))
			}
		case core.TypeInteger, core.TypeFloat, core.TypeDatetime:
			rangeText, err := valueRange(ctx, src, col.Name)
			if err != nil {
				return "", fmt.Errorf("failed to inspect column %q: %w", col.Name, err)
			}
			fmt.Fprintf(&b, "    range: %s\n", rangeText)
		}
	}
	return b.String(), nil
}

// SemanticOf maps a backend-native type name onto exactly one semantic
// type. Unmapped or ambiguous native types default to TEXT.
func SemanticOf(native string) core.SemanticType {
	t := strings.ToUpper(native)
	switch {
	case strings.Contains(t, "BOOL"):
		return core.TypeBoolean
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return core.TypeDatetime
	case strings.Contains(t, "INT"), strings.Contains(t, "SERIAL"):
		return core.TypeInteger
	case strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"),
		strings.Contains(t, "REAL"), strings.Contains(t, "DECIMAL"),
		strings.Contains(t, "NUMERIC"):
		return core.TypeFloat
	default:
		return core.TypeText
	}
}

// categoricalValues fetches up to threshold+1 distinct non-null values; the
// extra row distinguishes "exactly threshold" from "too many to report".
func categoricalValues(ctx context.Context, src datasource.DataSource, column string, threshold int) ([]string, bool, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d`,
		quoteIdent(column), src.Identifier(), quoteIdent(column), threshold+1,
	)
	result, err := src.Execute(ctx, query)
	if err != nil {
		return nil, false, err
	}
	if result.RowCount() > threshold {
		return nil, false, nil
	}

	values := make([]string, 0, result.RowCount())
	for _, row := range result.Rows {
		values = append(values, formatValue(row[0]))
	}
	return values, true, nil
}

// valueRange reports "min to max" over non-null values, or the no-range
// sentinel for an all-null column.
func valueRange(ctx context.Context, src datasource.DataSource, column string) (string, error) {
	query := fmt.Sprintf(
		`SELECT MIN(%s), MAX(%s) FROM %s`,
		quoteIdent(column), quoteIdent(column), src.Identifier(),
	)
	result, err := src.Execute(ctx, query)
	if err != nil {
		return "", err
	}
	if result.RowCount() == 0 || result.Rows[0][0] == nil {
		return NoRangeSentinel, nil
	}
	return fmt.Sprintf("%s to %s", formatValue(result.Rows[0][0]), formatValue(result.Rows[0][1])), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
