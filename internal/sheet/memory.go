package sheet

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryTable is an in-process Table. It backs tests and the xlsx driver.
type MemoryTable struct {
	mu     sync.Mutex
	order  []string
	sheets map[string][][]string

	// afterWrite runs with mu held after every successful mutation.
	afterWrite func() error
}

// NewMemory creates an empty MemoryTable.
func NewMemory() *MemoryTable {
	return &MemoryTable{sheets: make(map[string][][]string)}
}

// Seed replaces a sheet's contents, starting at row 1. Test helper.
func (m *MemoryTable) Seed(name string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(name)
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	m.sheets[name] = cp
}

// Rows returns a copy of a sheet's rows from row 1, as stored.
func (m *MemoryTable) Rows(name string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.sheets[name]
	cp := make([][]string, len(src))
	for i, r := range src {
		cp[i] = append([]string(nil), r...)
	}
	return cp
}

// SheetNames returns sheet names in creation order.
func (m *MemoryTable) SheetNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *MemoryTable) ensure(name string) {
	if _, ok := m.sheets[name]; !ok {
		m.sheets[name] = nil
		m.order = append(m.order, name)
	}
}

func (m *MemoryTable) ReadRange(_ context.Context, rng string) ([][]string, error) {
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	grid := m.sheets[r.Sheet]
	last := len(grid)
	if r.EndRow > 0 && r.EndRow < last {
		last = r.EndRow
	}

	var out [][]string
	for rowNum := r.StartRow; rowNum <= last; rowNum++ {
		src := grid[rowNum-1]
		var cells []string
		for col := r.StartCol; col <= len(src) && (r.EndCol == 0 || col <= r.EndCol); col++ {
			cells = append(cells, src[col-1])
		}
		out = append(out, cells)
	}
	return trimRows(out), nil
}

func (m *MemoryTable) AppendRow(_ context.Context, rng string, row []string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	undo := m.snapshot(r.Sheet)
	m.ensure(r.Sheet)
	target := lastNonEmpty(m.sheets[r.Sheet]) + 1
	if target < r.StartRow {
		target = r.StartRow
	}
	m.write(r.Sheet, target, r.StartCol, [][]string{row})
	return m.commit(undo)
}

func (m *MemoryTable) UpdateRange(_ context.Context, rng string, rows [][]string) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	if err := r.fits(rows); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	undo := m.snapshot(r.Sheet)
	m.ensure(r.Sheet)
	m.write(r.Sheet, r.StartRow, r.StartCol, rows)
	return m.commit(undo)
}

func (m *MemoryTable) UpdateCell(ctx context.Context, cell, value string) error {
	return m.UpdateRange(ctx, cell, [][]string{{value}})
}

func (m *MemoryTable) Close() error { return nil }

// write places rows at (rowNum, col), growing the grid as needed.
func (m *MemoryTable) write(name string, rowNum, col int, rows [][]string) {
	grid := m.sheets[name]
	for i, row := range rows {
		idx := rowNum - 1 + i
		for len(grid) <= idx {
			grid = append(grid, nil)
		}
		dst := grid[idx]
		for j, v := range row {
			c := col - 1 + j
			for len(dst) <= c {
				dst = append(dst, "")
			}
			dst[c] = v
		}
		grid[idx] = dst
	}
	m.sheets[name] = grid
}

// snapshot returns a func that restores the named sheet and the sheet order
// to their current state.
func (m *MemoryTable) snapshot(name string) func() {
	order := append([]string(nil), m.order...)
	grid, existed := m.sheets[name]
	cp := make([][]string, len(grid))
	for i, r := range grid {
		cp[i] = append([]string(nil), r...)
	}
	return func() {
		m.order = order
		if !existed {
			delete(m.sheets, name)
			return
		}
		m.sheets[name] = cp
	}
}

// commit persists the mutation, undoing it in memory if persisting fails so
// the grid never holds rows the backing file lacks.
func (m *MemoryTable) commit(undo func()) error {
	if m.afterWrite == nil {
		return nil
	}
	if err := m.afterWrite(); err != nil {
		undo()
		return eris.Wrap(err, "sheet: persist")
	}
	return nil
}

func lastNonEmpty(grid [][]string) int {
	for i := len(grid) - 1; i >= 0; i-- {
		if len(trimRow(grid[i])) > 0 {
			return i + 1
		}
	}
	return 0
}
