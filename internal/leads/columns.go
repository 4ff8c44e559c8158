// Package leads maps the lead sheet's columns to typed records and reads
// run settings from the configuration tab.
package leads

import (
	"strconv"
	"strings"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/sheet"
)

// Sheet tabs.
const (
	LeadsSheet  = "Leads"
	ConfigSheet = "Config"
)

// Column positions in the Leads tab, 0-based within a row read from column A.
const (
	colID = iota
	colCapturedAt
	colName
	colRole
	colCompany
	colSource
	colProfileURL
	colScore
	colFit
	colReason
	colEnrichment
	colSourceURLs
	colStatus
	colNotes
	numColumns
)

// Length limits for evaluation text written back to the sheet.
const (
	MaxReasonRunes     = 200
	MaxEnrichmentRunes = 400
	MaxSourceURLs      = 3
)

// CapturedAtLayout formats the captured_at column.
const CapturedAtLayout = "2006-01-02"

// Header is the Leads tab's first row.
var Header = []string{
	"ID", "Captured", "Name", "Role", "Company", "Source", "Profile URL",
	"Score", "Fit", "Reason", "Enrichment", "Sources", "Status", "Notes",
}

var (
	lastColumn = sheet.ColumnLetter(numColumns)
	// evalFirst and evalLast bound the block written by an evaluation.
	// profile_url (G) sits before it and notes (N) after it.
	evalFirst = sheet.ColumnLetter(colScore + 1)
	evalLast  = sheet.ColumnLetter(colStatus + 1)
)

// Decode maps a row read from column A into a Lead. Missing cells decode
// as empty; score and fit are set only when both parse.
func Decode(row []string, rowNum int) model.Lead {
	l := model.Lead{
		Row:            rowNum,
		ID:             strings.TrimSpace(sheet.Cell(row, colID)),
		CapturedAt:     sheet.Cell(row, colCapturedAt),
		Name:           sheet.Cell(row, colName),
		Role:           sheet.Cell(row, colRole),
		Company:        sheet.Cell(row, colCompany),
		Source:         sheet.Cell(row, colSource),
		ProfileURL:     sheet.Cell(row, colProfileURL),
		Reason:         sheet.Cell(row, colReason),
		EnrichmentText: sheet.Cell(row, colEnrichment),
		SourceURLs:     splitURLs(sheet.Cell(row, colSourceURLs)),
		Status:         model.ParseStatus(sheet.Cell(row, colStatus)),
		Notes:          sheet.Cell(row, colNotes),
	}

	score, scoreErr := strconv.Atoi(strings.TrimSpace(sheet.Cell(row, colScore)))
	fit, fitOK := ParseFit(sheet.Cell(row, colFit))
	if scoreErr == nil && fitOK {
		l.Score = &score
		l.Fit = &fit
	}
	return l
}

// EncodeNew renders a freshly extracted lead as columns A through M.
// Evaluation columns stay empty and notes are never written.
func EncodeNew(l model.Lead) []string {
	row := make([]string, colNotes)
	row[colID] = l.ID
	row[colCapturedAt] = l.CapturedAt
	row[colName] = l.Name
	row[colRole] = l.Role
	row[colCompany] = l.Company
	row[colSource] = l.Source
	row[colProfileURL] = l.ProfileURL
	row[colStatus] = string(l.Status)
	return row
}

// EncodeEvaluation renders the score-through-status block.
func EncodeEvaluation(ev model.Evaluation, res model.Research, status model.Status) []string {
	urls := res.URLs
	if len(urls) > MaxSourceURLs {
		urls = urls[:MaxSourceURLs]
	}
	return []string{
		strconv.Itoa(ev.Score),
		strconv.FormatBool(ev.Fit),
		Truncate(ev.Reason, MaxReasonRunes),
		Truncate(res.Summary, MaxEnrichmentRunes),
		strings.Join(urls, "\n"),
		string(status),
	}
}

// ParseFit decodes the fit column, accepting legacy markers.
func ParseFit(raw string) (fit, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "sí", "si", "✅", "1":
		return true, true
	case "false", "no", "❌", "0":
		return false, true
	}
	return false, false
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func splitURLs(cell string) []string {
	var out []string
	for _, u := range strings.Split(cell, "\n") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
