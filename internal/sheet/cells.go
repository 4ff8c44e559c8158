package sheet

// cellValue is one stored cell of a SQL-backed table.
type cellValue struct {
	Row   int
	Col   int
	Value string
}

// assemble builds the short-row block for r from non-empty cells ordered by
// row then column.
func assemble(r Range, cells []cellValue) [][]string {
	var out [][]string
	for _, c := range cells {
		ri := c.Row - r.StartRow
		ci := c.Col - r.StartCol
		for len(out) <= ri {
			out = append(out, nil)
		}
		row := out[ri]
		for len(row) <= ci {
			row = append(row, "")
		}
		row[ci] = c.Value
		out[ri] = row
	}
	return trimRows(out)
}

// flatten lays out a block of rows at (rowNum, col).
func flatten(rowNum, col int, rows [][]string) []cellValue {
	var cells []cellValue
	for i, row := range rows {
		for j, v := range row {
			cells = append(cells, cellValue{Row: rowNum + i, Col: col + j, Value: v})
		}
	}
	return cells
}

// upperBound converts an open range side to a bound usable in SQL.
func upperBound(n int) int {
	if n == 0 {
		return 1<<31 - 1
	}
	return n
}
