package sheet

import "context"

// Table is a row-oriented store addressed by A1 ranges. Reads return short
// rows with trailing empty cells and trailing empty rows omitted. Values are
// stored verbatim and never interpreted as formulas.
type Table interface {
	// ReadRange returns the rows covered by rng, in order.
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	// AppendRow writes row below the last non-empty row of the sheet,
	// starting at rng's first column and no higher than rng's first row.
	AppendRow(ctx context.Context, rng string, row []string) error
	// UpdateRange overwrites the block of cells starting at rng's top-left.
	UpdateRange(ctx context.Context, rng string, rows [][]string) error
	// UpdateCell overwrites a single cell.
	UpdateCell(ctx context.Context, cell, value string) error
	Close() error
}

// Cell returns row[col] or "" when the row is too short.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
