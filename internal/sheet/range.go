// Package sheet addresses row-oriented tables with A1 ranges and provides
// the lead store backends.
package sheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrBadRange is returned for ranges that cannot be parsed or written.
var ErrBadRange = errors.New("sheet: bad range")

var refRe = regexp.MustCompile(`^([A-Za-z]+)([0-9]*)$`)

// Range is a parsed A1 range. Columns and rows are 1-based; a zero EndCol or
// EndRow leaves that side open.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses references such as "Leads!A2:N", "Config!B2:B8",
// "Leads!A2" or "'My Tab'!C5".
func ParseRange(s string) (Range, error) {
	bang := strings.LastIndex(s, "!")
	if bang <= 0 {
		return Range{}, eris.Wrapf(ErrBadRange, "missing sheet name in %q", s)
	}
	r := Range{Sheet: strings.Trim(s[:bang], "'")}
	if r.Sheet == "" {
		return Range{}, eris.Wrapf(ErrBadRange, "empty sheet name in %q", s)
	}

	ref := s[bang+1:]
	start, end, isSpan := strings.Cut(ref, ":")

	var err error
	r.StartCol, r.StartRow, err = parseRef(start)
	if err != nil {
		return Range{}, eris.Wrapf(err, "range %q", s)
	}
	if r.StartRow == 0 {
		r.StartRow = 1
	}

	if !isSpan {
		r.EndCol, r.EndRow = r.StartCol, r.StartRow
		return r, nil
	}
	r.EndCol, r.EndRow, err = parseRef(end)
	if err != nil {
		return Range{}, eris.Wrapf(err, "range %q", s)
	}
	if r.EndCol < r.StartCol || (r.EndRow != 0 && r.EndRow < r.StartRow) {
		return Range{}, eris.Wrapf(ErrBadRange, "inverted range %q", s)
	}
	return r, nil
}

// MustParseRange is ParseRange for constant ranges.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseRef(ref string) (col, row int, err error) {
	m := refRe.FindStringSubmatch(ref)
	if m == nil {
		return 0, 0, eris.Wrapf(ErrBadRange, "bad reference %q", ref)
	}
	col = ColumnIndex(m[1])
	if m[2] != "" {
		row, err = strconv.Atoi(m[2])
		if err != nil || row < 1 {
			return 0, 0, eris.Wrapf(ErrBadRange, "bad row in %q", ref)
		}
	}
	return col, row, nil
}

// ColumnIndex converts a column letter ("A", "N", "AA") to its 1-based index.
func ColumnIndex(letters string) int {
	n := 0
	for _, c := range strings.ToUpper(letters) {
		n = n*26 + int(c-'A'+1)
	}
	return n
}

// ColumnLetter converts a 1-based column index to its letter form.
func ColumnLetter(idx int) string {
	var b []byte
	for idx > 0 {
		idx--
		b = append([]byte{byte('A' + idx%26)}, b...)
		idx /= 26
	}
	return string(b)
}

// String renders the range back to A1 notation.
func (r Range) String() string {
	name := r.Sheet
	if strings.ContainsAny(name, " '!") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	start := fmt.Sprintf("%s%d", ColumnLetter(r.StartCol), r.StartRow)
	if r.EndCol == r.StartCol && r.EndRow == r.StartRow {
		return name + "!" + start
	}
	end := ColumnLetter(r.EndCol)
	if r.EndRow > 0 {
		end += strconv.Itoa(r.EndRow)
	}
	return name + "!" + start + ":" + end
}

// fits reports whether a block of rows fits inside the bounded sides of r.
func (r Range) fits(rows [][]string) error {
	if r.EndRow > 0 && len(rows) > r.EndRow-r.StartRow+1 {
		return eris.Wrapf(ErrBadRange, "%d rows exceed %s", len(rows), r)
	}
	if r.EndCol > 0 {
		width := r.EndCol - r.StartCol + 1
		for _, row := range rows {
			if len(row) > width {
				return eris.Wrapf(ErrBadRange, "%d columns exceed %s", len(row), r)
			}
		}
	}
	return nil
}

// trimRow drops trailing empty cells.
func trimRow(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}

// trimRows drops trailing empty rows and trailing empty cells of each row.
func trimRows(rows [][]string) [][]string {
	for i := range rows {
		rows[i] = trimRow(rows[i])
		if len(rows[i]) == 0 {
			rows[i] = nil
		}
	}
	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	if n == 0 {
		return nil
	}
	return rows[:n]
}
