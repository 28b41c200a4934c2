package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

func TestOpenCreateQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := New(nil)
	require.NoError(t, e.Open(ctx))
	defer func() { _ = e.Close() }()

	frame := core.Frame{
		Columns: []string{"id", "name"},
		Rows: [][]any{
			{int64(1), "alpha"},
			{int64(2), "beta"},
		},
	}
	require.NoError(t, e.CreateTable(ctx, "items", frame))

	var count int
	row := e.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "items"`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 2, count)
}

func TestOpenTwiceFails(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.Open(context.Background()))
	defer func() { _ = e.Close() }()

	assert.Error(t, e.Open(context.Background()))
}

func TestInstancesArePrivate(t *testing.T) {
	ctx := context.Background()

	a := New(nil)
	require.NoError(t, a.Open(ctx))
	defer func() { _ = a.Close() }()
	b := New(nil)
	require.NoError(t, b.Open(ctx))
	defer func() { _ = b.Close() }()

	require.NoError(t, a.CreateTable(ctx, "only_in_a", core.Frame{Columns: []string{"x"}}))

	_, err := b.DB().QueryContext(ctx, `SELECT * FROM "only_in_a"`)
	assert.Error(t, err, "in-memory databases must not be shared between instances")
}

func TestDeclaredTypesSurviveProbe(t *testing.T) {
	ctx := context.Background()
	e := New(nil)
	require.NoError(t, e.Open(ctx))
	defer func() { _ = e.Close() }()

	frame := core.Frame{
		Columns: []string{"n", "score", "label"},
		Rows:    [][]any{{int64(1), 2.5, "a"}},
	}
	require.NoError(t, e.CreateTable(ctx, "typed", frame))

	rows, err := e.DB().QueryContext(ctx, `SELECT * FROM "typed" WHERE 1=0`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "INTEGER", types[0].DatabaseTypeName())
	assert.Equal(t, "REAL", types[1].DatabaseTypeName())
	assert.Equal(t, "TEXT", types[2].DatabaseTypeName())
}
