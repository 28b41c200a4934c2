package sqlbase

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

var testTypes = TypeMapper{
	Integer:  "BIGINT",
	Float:    "DOUBLE",
	Boolean:  "BOOLEAN",
	Datetime: "TIMESTAMP",
	Text:     "VARCHAR",
}

func TestQuoteIdent(t *testing.T) {
	b := &BaseEngine{}

	assert.Equal(t, `"sales"`, b.QuoteIdent("sales"))
	assert.Equal(t, `"weird ""name"""`, b.QuoteIdent(`weird "name"`), "embedded quotes are doubled")
}

func TestColumnTypeInference(t *testing.T) {
	frame := core.Frame{
		Columns: []string{"i", "f", "b", "ts", "s", "all_null", "null_then_int"},
		Rows: [][]any{
			{int64(1), 1.5, true, time.Now(), "x", nil, nil},
			{int64(2), 2.5, false, time.Now(), "y", nil, int64(7)},
		},
	}
	b := &BaseEngine{Types: testTypes}

	assert.Equal(t, "BIGINT", b.columnType(frame, 0))
	assert.Equal(t, "DOUBLE", b.columnType(frame, 1))
	assert.Equal(t, "BOOLEAN", b.columnType(frame, 2))
	assert.Equal(t, "TIMESTAMP", b.columnType(frame, 3))
	assert.Equal(t, "VARCHAR", b.columnType(frame, 4))
	assert.Equal(t, "VARCHAR", b.columnType(frame, 5), "all-NULL columns fall back to text")
	assert.Equal(t, "BIGINT", b.columnType(frame, 6), "first non-nil value decides")
}

func TestCreateTableStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "sales" ("id" BIGINT, "region" VARCHAR)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "sales" VALUES (?, ?)`))
	prep.ExpectExec().WithArgs(int64(1), "north").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(int64(2), "south").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b := &BaseEngine{Handle: db, Types: testTypes}
	err = b.CreateTable(context.Background(), "sales", core.Frame{
		Columns: []string{"id", "region"},
		Rows: [][]any{
			{int64(1), "north"},
			{int64(2), "south"},
		},
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableEmptyFrameSkipsInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "empty" ("id" VARCHAR)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	b := &BaseEngine{Handle: db, Types: testTypes}
	err = b.CreateTable(context.Background(), "empty", core.Frame{Columns: []string{"id"}})
	require.NoError(t, err)

	// No transaction should have been opened.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "sales" ("id" BIGINT)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "sales" VALUES (?)`))
	prep.ExpectExec().WithArgs(int64(1)).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	b := &BaseEngine{Handle: db, Types: testTypes}
	err = b.CreateTable(context.Background(), "sales", core.Frame{
		Columns: []string{"id"},
		Rows:    [][]any{{int64(1)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTableRequiresOpenHandle(t *testing.T) {
	b := &BaseEngine{Types: testTypes}
	err := b.CreateTable(context.Background(), "t", core.Frame{Columns: []string{"a"}})
	assert.Error(t, err)
}

func TestCloseIsSafeOnNilHandle(t *testing.T) {
	b := &BaseEngine{}
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
