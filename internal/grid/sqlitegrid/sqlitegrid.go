package sqlitegrid

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/gridstore/internal/grid"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - empty database
// 1 - grid_rows table
// 2 - grid_rows.revision column
const currentSchemaVersion = 2

// Grid is a grid.Transport over a SQLite database file.
type Grid struct {
	db *sql.DB
}

var (
	_ grid.Transport = (*Grid)(nil)
	_ grid.Closer    = (*Grid)(nil)
)

// Open creates or opens a grid database at path, applying pragmas and
// migrations. Opening the same path repeatedly is safe.
func Open(path string) (*Grid, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open grid database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to grid database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Grid{db: db}, nil
}

// Close closes the database.
func (g *Grid) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV2 adds a per-row revision counter, bumped on every write.
func migrateToV2(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('grid_rows') WHERE name = 'revision'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE grid_rows ADD COLUMN revision INTEGER NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// GetRange implements grid.Transport.
func (g *Grid) GetRange(ctx context.Context, r grid.Range) ([][]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if r.Kind != grid.RangeTable {
		cells, err := g.readRow(ctx, g.db, r.Table, r.RowNumber())
		if err != nil {
			return nil, err
		}
		if len(cells) == 0 {
			return [][]string{}, nil
		}
		return [][]string{cells}, nil
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT row_num, cells FROM grid_rows
		WHERE spreadsheet_id = ? AND tab = ?
		ORDER BY row_num ASC
	`, r.Table.SpreadsheetID, r.Table.Tab)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var n int
		var raw string
		if err := rows.Scan(&n, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r, err)
		}
		cells, err := unmarshalCells(raw)
		if err != nil {
			return nil, err
		}
		for len(out) < n-1 {
			out = append(out, []string{})
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r, err)
	}
	return grid.TrimRows(out), nil
}

// WriteRange implements grid.Transport. Cells beyond the written width keep
// their previous contents.
func (g *Grid) WriteRange(ctx context.Context, r grid.Range, rows [][]string, mode grid.WriteMode) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Kind != grid.RangeTable && len(rows) > 1 {
		return fmt.Errorf("sqlitegrid: %s addresses one row, got %d", r, len(rows))
	}
	return g.inTx(ctx, func(tx *sql.Tx) error {
		return g.put(ctx, tx, r.Table, r.RowNumber(), rows, mode)
	})
}

// AppendRows implements grid.Transport. Rows land after the last populated
// row and are always interpreted.
func (g *Grid) AppendRows(ctx context.Context, r grid.Range, rows [][]string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return g.inTx(ctx, func(tx *sql.Tx) error {
		var last sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			SELECT MAX(row_num) FROM grid_rows WHERE spreadsheet_id = ? AND tab = ?
		`, r.Table.SpreadsheetID, r.Table.Tab).Scan(&last)
		if err != nil {
			return fmt.Errorf("append %s: %w", r, err)
		}
		return g.put(ctx, tx, r.Table, int(last.Int64)+1, rows, grid.Interpreted)
	})
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (g *Grid) readRow(ctx context.Context, q querier, t grid.Table, n int) ([]string, error) {
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT cells FROM grid_rows WHERE spreadsheet_id = ? AND tab = ? AND row_num = ?
	`, t.SpreadsheetID, t.Tab, n).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s row %d: %w", t, n, err)
	}
	return unmarshalCells(raw)
}

// put overlays rows onto the stored rows starting at sheet row start.
func (g *Grid) put(ctx context.Context, tx *sql.Tx, t grid.Table, start int, rows [][]string, mode grid.WriteMode) error {
	for i, row := range rows {
		n := start + i
		dst, err := g.readRow(ctx, tx, t, n)
		if err != nil {
			return err
		}
		if len(dst) < len(row) {
			dst = append(dst, make([]string, len(row)-len(dst))...)
		}
		for j, cell := range row {
			if mode == grid.Interpreted {
				cell = grid.Interpret(cell)
			}
			dst[j] = cell
		}

		trimmed := grid.TrimRows([][]string{dst})
		if len(trimmed) == 0 {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM grid_rows WHERE spreadsheet_id = ? AND tab = ? AND row_num = ?
			`, t.SpreadsheetID, t.Tab, n); err != nil {
				return fmt.Errorf("clear %s row %d: %w", t, n, err)
			}
			continue
		}

		raw, err := marshalCells(trimmed[0])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO grid_rows (spreadsheet_id, tab, row_num, cells, revision)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT(spreadsheet_id, tab, row_num)
			DO UPDATE SET cells = excluded.cells, revision = revision + 1
		`, t.SpreadsheetID, t.Tab, n, raw); err != nil {
			return fmt.Errorf("write %s row %d: %w", t, n, err)
		}
	}
	return nil
}

func (g *Grid) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func marshalCells(cells []string) (string, error) {
	data, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("marshal cells: %w", err)
	}
	return string(data), nil
}

func unmarshalCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("unmarshal cells: %w", err)
	}
	return cells, nil
}

// verifyPragma checks that a pragma is set to the expected value.
func (g *Grid) verifyPragma(name, expected string) error {
	var value string
	if err := g.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
