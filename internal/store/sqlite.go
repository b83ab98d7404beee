package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"carsclean/internal/cleaning"
	"carsclean/internal/table"
)

const (
	CarsTable = "cars_cleaned"
	RunsTable = "cleaning_runs"
)

// Run describes one cleaning run stored alongside the cleaned rows.
type Run struct {
	ID         uuid.UUID
	Source     string
	Output     string
	StartedAt  time.Time
	FinishedAt time.Time
	RowsIn     int
	RowsOut    int
}

func NewRun(source, output string, started time.Time) Run {
	return Run{ID: uuid.New(), Source: source, Output: output, StartedAt: started}
}

// Capacity holds numbers and the "Unknown" marker, so it gets NUMERIC
// affinity instead of REAL.
var columnTypes = map[string]string{
	cleaning.ColSpeed:       "REAL",
	cleaning.ColPerformance: "REAL",
	cleaning.ColPrice:       "REAL",
	cleaning.ColHorsePower:  "REAL",
	cleaning.ColTorque:      "REAL",
	cleaning.ColCapacity:    "NUMERIC",
}

// WriteSQLite recreates the database at path with the rows of t and a record
// of run.
func WriteSQLite(ctx context.Context, path string, t *table.Table, run Run) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := createCarsTable(ctx, tx, t); err != nil {
		return fmt.Errorf("create %s: %w", CarsTable, err)
	}
	if err := insertRows(ctx, tx, t); err != nil {
		return fmt.Errorf("insert %s: %w", CarsTable, err)
	}
	for _, idx := range []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_cars_cleaned_company ON %s(%s)`, quoteIdent(CarsTable), quoteIdent(cleaning.ColCompany)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_cars_cleaned_name ON %s(%s)`, quoteIdent(CarsTable), quoteIdent(cleaning.ColModel)),
	} {
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	if err := insertRun(ctx, tx, run); err != nil {
		return fmt.Errorf("insert %s: %w", RunsTable, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return verifySchema(ctx, db, t)
}

// verifySchema reads back the written database and checks that both tables
// exist and that cars_cleaned carries the columns of t in order.
func verifySchema(ctx context.Context, db *sql.DB, t *table.Table) error {
	tables, err := UserTables(ctx, db)
	if err != nil {
		return err
	}
	if !slices.Contains(tables, CarsTable) || !slices.Contains(tables, RunsTable) {
		return fmt.Errorf("verify schema: expected tables %s and %s, found %v", CarsTable, RunsTable, tables)
	}
	cols, _, err := TableColumns(ctx, db, CarsTable)
	if err != nil {
		return err
	}
	if !slices.Equal(cols, t.Columns) {
		return fmt.Errorf("verify schema: %s has columns %v, want %v", CarsTable, cols, t.Columns)
	}
	return nil
}

func createCarsTable(ctx context.Context, tx *sql.Tx, t *table.Table) error {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		typ := columnTypes[c]
		if typ == "" {
			typ = "TEXT"
		}
		defs = append(defs, quoteIdent(c)+" "+typ)
	}
	_, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(CarsTable)+` (`+strings.Join(defs, ",")+`)`)
	return err
}

func insertRows(ctx context.Context, tx *sql.Tx, t *table.Table) error {
	ph := strings.TrimRight(strings.Repeat("?,", len(t.Columns)), ",")
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(CarsTable)+` (`+joinIdents(t.Columns)+`) VALUES (`+ph+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	args := make([]any, len(t.Columns))
	for _, r := range t.Rows {
		for i, v := range r {
			args[i] = sqliteValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, run Run) error {
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quoteIdent(RunsTable)+` (
		run_id TEXT PRIMARY KEY,
		source TEXT,
		output TEXT,
		started_at TEXT,
		finished_at TEXT,
		rows_in INTEGER,
		rows_out INTEGER
	)`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+quoteIdent(RunsTable)+` VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Source, run.Output,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.RowsIn, run.RowsOut,
	)
	return err
}

func sqliteValue(v table.Value) any {
	switch v.Kind {
	case table.Text:
		return v.Str
	case table.Number:
		return v.Num
	default:
		return nil
	}
}

// UserTables lists the non-internal tables of db by name.
func UserTables(ctx context.Context, db *sql.DB) ([]string, error) {
	const q = `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no user tables found")
	}
	return out, nil
}

// TableColumns returns the column names and declared types of tbl.
func TableColumns(ctx context.Context, db *sql.DB, tbl string) ([]string, []string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tbl)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var cols, types []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, nil, err
		}
		cols = append(cols, name)
		types = append(types, ctype)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("no columns found for table %q", tbl)
	}
	return cols, types, nil
}

func joinIdents(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = quoteIdent(c)
	}
	return strings.Join(parts, ", ")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
