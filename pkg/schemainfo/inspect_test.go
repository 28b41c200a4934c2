package schemainfo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ai/sqlgate/pkg/core"
	"github.com/tabular-ai/sqlgate/pkg/datasource"
	"github.com/tabular-ai/sqlgate/pkg/schemainfo"

	_ "github.com/tabular-ai/sqlgate/pkg/engines/sqlite"
)

// fakeSource answers exactly the probe queries a test expects, sqlmock
// style: an unexpected query is a test failure.
type fakeSource struct {
	ident   string
	cols    []core.Column
	results map[string]*core.Result
	errs    map[string]error
}

func (f *fakeSource) Identifier() string     { return f.ident }
func (f *fakeSource) Columns() []core.Column { return f.cols }
func (f *fakeSource) Release() error         { return nil }

func (f *fakeSource) Execute(_ context.Context, query string) (*core.Result, error) {
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	if r, ok := f.results[query]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("unexpected probe query: %s", query)
}

func (f *fakeSource) FetchRow(ctx context.Context, query string, _ bool) (*core.Result, error) {
	return f.Execute(ctx, query)
}

func (f *fakeSource) FetchAll(ctx context.Context) (*core.Result, error) {
	return f.Execute(ctx, "SELECT * FROM "+f.ident)
}

func oneRow(columns []string, values ...any) *core.Result {
	return &core.Result{Columns: columns, Rows: [][]any{values}}
}

func TestSemanticOf(t *testing.T) {
	cases := []struct {
		native string
		want   core.SemanticType
	}{
		{"INT8", core.TypeInteger},
		{"BIGINT", core.TypeInteger},
		{"serial", core.TypeInteger},
		{"DOUBLE", core.TypeFloat},
		{"REAL", core.TypeFloat},
		{"NUMERIC", core.TypeFloat},
		{"BOOL", core.TypeBoolean},
		{"BOOLEAN", core.TypeBoolean},
		{"TIMESTAMP", core.TypeDatetime},
		{"DATE", core.TypeDatetime},
		{"VARCHAR", core.TypeText},
		{"BLOB", core.TypeText},
		{"", core.TypeText},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, schemainfo.SemanticOf(tc.native), "native type %q", tc.native)
	}
}

func TestInspectRendersFacets(t *testing.T) {
	src := &fakeSource{
		ident: "sales",
		cols: []core.Column{
			{Name: "id", NativeType: "INT8", Position: 1},
			{Name: "region", NativeType: "VARCHAR", Position: 2},
			{Name: "score", NativeType: "DOUBLE", Position: 3},
			{Name: "active", NativeType: "BOOL", Position: 4},
		},
		results: map[string]*core.Result{
			`SELECT MIN("id"), MAX("id") FROM sales`: oneRow([]string{"min", "max"}, int64(1), int64(3)),
			`SELECT DISTINCT "region" FROM sales WHERE "region" IS NOT NULL ORDER BY 1 LIMIT 3`: {
				Columns: []string{"region"},
				Rows:    [][]any{{"north"}, {"south"}},
			},
			`SELECT MIN("score"), MAX("score") FROM sales`: oneRow([]string{"min", "max"}, 1.1, 3.3),
		},
	}

	out, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{CategoricalThreshold: 2})
	require.NoError(t, err)

	want := "Table: sales\n" +
		"  - id (INTEGER)\n" +
		"    range: 1 to 3\n" +
		"  - region (TEXT)\n" +
		"    values: north, south\n" +
		"  - score (FLOAT)\n" +
		"    range: 1.1 to 3.3\n" +
		"  - active (BOOLEAN)\n"
	assert.Equal(t, want, out)
}

func TestInspectHighCardinalityTextHasNoValueSet(t *testing.T) {
	src := &fakeSource{
		ident: "users",
		cols:  []core.Column{{Name: "email", NativeType: "VARCHAR", Position: 1}},
		results: map[string]*core.Result{
			`SELECT DISTINCT "email" FROM users WHERE "email" IS NOT NULL ORDER BY 1 LIMIT 3`: {
				Columns: []string{"email"},
				Rows:    [][]any{{"a"}, {"b"}, {"c"}}, // one past the threshold
			},
		},
	}

	out, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{CategoricalThreshold: 2})
	require.NoError(t, err)
	assert.Equal(t, "Table: users\n  - email (TEXT)\n", out, "over-threshold columns get no facet line")
}

func TestInspectAllNullColumnUsesSentinel(t *testing.T) {
	src := &fakeSource{
		ident: "metrics",
		cols:  []core.Column{{Name: "latency", NativeType: "DOUBLE", Position: 1}},
		results: map[string]*core.Result{
			`SELECT MIN("latency"), MAX("latency") FROM metrics`: oneRow([]string{"min", "max"}, nil, nil),
		},
	}

	out, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "range: "+schemainfo.NoRangeSentinel)
}

func TestInspectFormatsDatetimeRange(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)
	src := &fakeSource{
		ident: "events",
		cols:  []core.Column{{Name: "seen_at", NativeType: "TIMESTAMP", Position: 1}},
		results: map[string]*core.Result{
			`SELECT MIN("seen_at"), MAX("seen_at") FROM events`: oneRow([]string{"min", "max"}, from, to),
		},
	}

	out, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "range: 2024-01-01T00:00:00Z to 2024-06-30T23:59:59Z")
}

func TestInspectDefaultThreshold(t *testing.T) {
	src := &fakeSource{
		ident: "t",
		cols:  []core.Column{{Name: "c", NativeType: "VARCHAR", Position: 1}},
		results: map[string]*core.Result{
			// Threshold <1 falls back to the default of 12, so the probe asks for 13.
			`SELECT DISTINCT "c" FROM t WHERE "c" IS NOT NULL ORDER BY 1 LIMIT 13`: {
				Columns: []string{"c"},
			},
		},
	}

	out, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{CategoricalThreshold: 0})
	require.NoError(t, err)
	assert.Contains(t, out, "values: \n", "empty value set still renders")
}

func TestInspectPropagatesProbeErrors(t *testing.T) {
	probeErr := errors.New("connection reset")
	src := &fakeSource{
		ident: "t",
		cols:  []core.Column{{Name: "n", NativeType: "INT8", Position: 1}},
		errs: map[string]error{
			`SELECT MIN("n"), MAX("n") FROM t`: probeErr,
		},
	}

	_, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{})
	require.ErrorIs(t, err, probeErr)
	assert.Contains(t, err.Error(), `"n"`, "failing column is named")
}

func TestInspectAgainstEmbeddedSource(t *testing.T) {
	frame := core.Frame{
		Columns: []string{"id", "region", "amount"},
		Rows: [][]any{
			{int64(1), "north", 10.5},
			{int64(2), "south", 20.25},
			{int64(3), "north", 5.0},
		},
	}
	src, err := datasource.NewEmbedded(context.Background(), "sales", frame,
		datasource.WithEngine("sqlite"))
	require.NoError(t, err)
	defer func() { _ = src.Release() }()

	out, err := schemainfo.Inspect(context.Background(), src, schemainfo.Options{})
	require.NoError(t, err)

	want := "Table: sales\n" +
		"  - id (INTEGER)\n" +
		"    range: 1 to 3\n" +
		"  - region (TEXT)\n" +
		"    values: north, south\n" +
		"  - amount (FLOAT)\n" +
		"    range: 5 to 20.25\n"
	assert.Equal(t, want, out)
}
