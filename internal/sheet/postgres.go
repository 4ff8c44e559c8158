package sheet

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of *pgxpool.Pool used by PostgresTable.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sheet_cells (
	sheet      TEXT        NOT NULL,
	row_num    INTEGER     NOT NULL,
	col_num    INTEGER     NOT NULL,
	value      TEXT        NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (sheet, row_num, col_num)
)`

// PostgresTable is a Table stored as one row per cell in Postgres, for
// teams sharing a lead store without a spreadsheet.
type PostgresTable struct {
	pool Pool
}

// OpenPostgres connects and migrates a Postgres-backed table.
func OpenPostgres(ctx context.Context, connString string) (*PostgresTable, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	t := NewPostgres(pool)
	if err := t.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return t, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool Pool) *PostgresTable {
	return &PostgresTable{pool: pool}
}

// Migrate creates the cell table if needed.
func (p *PostgresTable) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *PostgresTable) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx,
		`SELECT row_num, col_num, value FROM sheet_cells
		 WHERE sheet = $1 AND row_num BETWEEN $2 AND $3 AND col_num BETWEEN $4 AND $5 AND value <> ''
		 ORDER BY row_num, col_num`,
		r.Sheet, r.StartRow, upperBound(r.EndRow), r.StartCol, upperBound(r.EndCol),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: read %s", rng)
	}
	defer rows.Close()

	var cells []cellValue
	for rows.Next() {
		var c cellValue
		if err := rows.Scan(&c.Row, &c.Col, &c.Value); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cell")
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: read %s", rng)
	}
	return assemble(r, cells), nil
}

func (p *PostgresTable) AppendRow(ctx context.Context, rng string, row []string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	var last int
	err = p.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(row_num), 0) FROM sheet_cells WHERE sheet = $1 AND value <> ''`,
		r.Sheet,
	).Scan(&last)
	if err != nil {
		return eris.Wrapf(err, "postgres: find last row of %s", r.Sheet)
	}
	target := max(last+1, r.StartRow)
	return p.put(ctx, r.Sheet, flatten(target, r.StartCol, [][]string{row}))
}

func (p *PostgresTable) UpdateRange(ctx context.Context, rng string, rows [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	if err := r.fits(rows); err != nil {
		return err
	}
	return p.put(ctx, r.Sheet, flatten(r.StartRow, r.StartCol, rows))
}

func (p *PostgresTable) UpdateCell(ctx context.Context, cell, value string) error {
	return p.UpdateRange(ctx, cell, [][]string{{value}})
}

func (p *PostgresTable) Close() error {
	p.pool.Close()
	return nil
}

// put upserts cells with a single statement so a row or range lands atomically.
func (p *PostgresTable) put(ctx context.Context, sheetName string, cells []cellValue) error {
	if len(cells) == 0 {
		return nil
	}
	rowNums := make([]int32, len(cells))
	colNums := make([]int32, len(cells))
	values := make([]string, len(cells))
	for i, c := range cells {
		rowNums[i] = int32(c.Row)
		colNums[i] = int32(c.Col)
		values[i] = c.Value
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO sheet_cells (sheet, row_num, col_num, value)
		 SELECT $1, r, c, v FROM unnest($2::int[], $3::int[], $4::text[]) AS t(r, c, v)
		 ON CONFLICT (sheet, row_num, col_num) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		sheetName, rowNums, colNums, values,
	)
	return eris.Wrapf(err, "postgres: write %d cells to %s", len(cells), sheetName)
}
