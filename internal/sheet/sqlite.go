package sheet

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sheet_cells (
	sheet      TEXT    NOT NULL,
	row_num    INTEGER NOT NULL,
	col_num    INTEGER NOT NULL,
	value      TEXT    NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (sheet, row_num, col_num)
);
`

// SQLiteTable is a Table stored as one row per cell in a local SQLite file.
type SQLiteTable struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite-backed table.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteTable, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteTable{db: db}, nil
}

func (s *SQLiteTable) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_num, col_num, value FROM sheet_cells
		 WHERE sheet = ? AND row_num BETWEEN ? AND ? AND col_num BETWEEN ? AND ? AND value <> ''
		 ORDER BY row_num, col_num`,
		r.Sheet, r.StartRow, upperBound(r.EndRow), r.StartCol, upperBound(r.EndCol),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read %s", rng)
	}
	defer rows.Close()

	var cells []cellValue
	for rows.Next() {
		var c cellValue
		if err := rows.Scan(&c.Row, &c.Col, &c.Value); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cell")
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: read %s", rng)
	}
	return assemble(r, cells), nil
}

func (s *SQLiteTable) AppendRow(ctx context.Context, rng string, row []string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	var last int
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_num), 0) FROM sheet_cells WHERE sheet = ? AND value <> ''`,
		r.Sheet,
	).Scan(&last)
	if err != nil {
		return eris.Wrapf(err, "sqlite: find last row of %s", r.Sheet)
	}
	target := max(last+1, r.StartRow)
	return s.put(ctx, r.Sheet, flatten(target, r.StartCol, [][]string{row}))
}

func (s *SQLiteTable) UpdateRange(ctx context.Context, rng string, rows [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	if err := r.fits(rows); err != nil {
		return err
	}
	return s.put(ctx, r.Sheet, flatten(r.StartRow, r.StartCol, rows))
}

func (s *SQLiteTable) UpdateCell(ctx context.Context, cell, value string) error {
	return s.UpdateRange(ctx, cell, [][]string{{value}})
}

func (s *SQLiteTable) Close() error {
	return s.db.Close()
}

// put upserts cells in one transaction.
func (s *SQLiteTable) put(ctx context.Context, sheetName string, cells []cellValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sheet_cells (sheet, row_num, col_num, value, updated_at)
		 VALUES (?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (sheet, row_num, col_num) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	for _, c := range cells {
		if _, err := stmt.ExecContext(ctx, sheetName, c.Row, c.Col, c.Value); err != nil {
			return eris.Wrapf(err, "sqlite: write %s!%s%d", sheetName, ColumnLetter(c.Col), c.Row)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}
