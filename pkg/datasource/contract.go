package datasource

import "github.com/tabular-ai/sqlgate/pkg/core"

// ValidateColumnContract verifies that a result retains every original
// column of the table. Used to gate queries that replace the visible
// dataset before they are trusted: a query may add computed columns, but
// dropping any original column is a contract violation naming exactly the
// missing columns, in native order.
func ValidateColumnContract(table string, original []core.Column, got []string) error {
	present := make(map[string]struct{}, len(got))
	for _, name := range got {
		present[name] = struct{}{}
	}

	var missing []string
	for _, col := range original {
		if _, ok := present[col.Name]; !ok {
			missing = append(missing, col.Name)
		}
	}

	if len(missing) > 0 {
		return &core.ColumnMismatchError{Table: table, Missing: missing}
	}
	return nil
}
