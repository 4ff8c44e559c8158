package sheet

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXTable is a Table persisted to a local workbook. The workbook is loaded
// once and rewritten after every mutation.
type XLSXTable struct {
	*MemoryTable
	path string
}

// OpenXLSX loads the workbook at path, or starts an empty one if the file
// does not exist yet.
func OpenXLSX(path string) (*XLSXTable, error) {
	t := &XLSXTable{MemoryTable: NewMemory(), path: path}
	t.afterWrite = t.save

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	for _, sh := range f.Sheets {
		rows := make([][]string, len(sh.Rows))
		for i, row := range sh.Rows {
			if row == nil {
				continue
			}
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				if cell != nil {
					cells[j] = cell.String()
				}
			}
			rows[i] = cells
		}
		t.sheets[sh.Name] = rows
		t.order = append(t.order, sh.Name)
	}
	return t, nil
}

// save writes the whole workbook. Called with the table lock held.
func (t *XLSXTable) save() error {
	f := xlsx.NewFile()
	for _, name := range t.order {
		sh, err := f.AddSheet(name)
		if err != nil {
			return eris.Wrapf(err, "xlsx: add sheet %s", name)
		}
		for _, src := range t.sheets[name] {
			row := sh.AddRow()
			if len(src) == 0 {
				// Keeps the row in the file so later rows stay in place.
				row.AddCell().SetString("")
			}
			for _, v := range src {
				row.AddCell().SetString(v)
			}
		}
	}

	tmp := t.path + ".tmp"
	if err := f.Save(tmp); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", tmp)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return eris.Wrapf(err, "xlsx: replace %s", t.path)
	}
	return nil
}
