package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carsclean/internal/cleaning"
	"carsclean/internal/table"
)

func cleanedSample(t *testing.T) *table.Table {
	t.Helper()
	src, err := table.Load(filepath.Join("..", "..", "testdata", "cars_sample.csv"))
	require.NoError(t, err)
	out, _, err := cleaning.Clean(src)
	require.NoError(t, err)
	return out
}

func TestWriteSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cars.sqlite")
	tbl := cleanedSample(t)

	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	run := NewRun("in.csv", "out.csv", started)
	run.FinishedAt = started.Add(time.Second)
	run.RowsIn, run.RowsOut = 9, tbl.Len()

	require.NoError(t, WriteSQLite(ctx, path, tbl, run))
	// A second write replaces the database instead of appending to it.
	require.NoError(t, WriteSQLite(ctx, path, tbl, run))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	tables, err := UserTables(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{CarsTable, RunsTable}, tables)

	cols, types, err := TableColumns(ctx, db, CarsTable)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns, cols)
	typeOf := map[string]string{}
	for i, c := range cols {
		typeOf[c] = types[i]
	}
	assert.Equal(t, "REAL", typeOf[cleaning.ColPrice])
	assert.Equal(t, "NUMERIC", typeOf[cleaning.ColCapacity])
	assert.Equal(t, "TEXT", typeOf[cleaning.ColCompany])

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cars_cleaned`).Scan(&n))
	assert.Equal(t, tbl.Len(), n)

	var price float64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT "Cars Prices" FROM cars_cleaned WHERE "Company Names" = ?`, "Ford").Scan(&price))
	assert.Equal(t, 13500.0, price)

	var capacity string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT "CC/Battery Capacity" FROM cars_cleaned WHERE "Company Names" = ?`, "Audi").Scan(&capacity))
	assert.Equal(t, cleaning.Unknown, capacity)

	var id string
	var rowsOut int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT run_id, rows_out FROM cleaning_runs`).Scan(&id, &rowsOut))
	assert.Equal(t, run.ID.String(), id)
	assert.Equal(t, tbl.Len(), rowsOut)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Performance(0 - 100 )KM/H"`, quoteIdent(cleaning.ColPerformance))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
	assert.Equal(t, `"a", "b"`, joinIdents([]string{"a", "b"}))
}

func TestVerifySchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cars.sqlite")
	tbl := cleanedSample(t)
	require.NoError(t, WriteSQLite(ctx, path, tbl, NewRun("in.csv", "out.csv", time.Now())))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, verifySchema(ctx, db, tbl))

	renamed := table.New(append([]string{"Brand"}, tbl.Columns[1:]...))
	err = verifySchema(ctx, db, renamed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CarsTable)

	_, err = db.ExecContext(ctx, `DROP TABLE cleaning_runs`)
	require.NoError(t, err)
	err = verifySchema(ctx, db, tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), RunsTable)
}
