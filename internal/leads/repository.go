package leads

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/identity"
	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/sheet"
)

// WatermarkLayout formats the last-run cell.
const WatermarkLayout = "2006-01-02 15:04"

// Config tab cells, column B, rows 2 through 8.
const (
	settingsRange  = ConfigSheet + "!B2:B8"
	watermarkCell  = ConfigSheet + "!B8"
	settingsLabels = ConfigSheet + "!A1:B8"
)

var configLabels = [][]string{
	{"Setting", "Value"},
	{"ICP"},
	{"Research queries"},
	{"Listing URL"},
	{"Max pages"},
	{"Max leads per run"},
	{"Auto run"},
	{"Last run"},
}

// Repository is the typed boundary over the Leads and Config tabs.
type Repository struct {
	table    sheet.Table
	defaults model.Settings
}

// NewRepository wraps table. defaults fill settings that are absent or
// unparsable in the Config tab.
func NewRepository(table sheet.Table, defaults model.Settings) *Repository {
	return &Repository{table: table, defaults: defaults}
}

// ExistingIDs reads the id snapshot in one bulk read. Rows with a blank id
// but a name and company contribute their derived id.
func (r *Repository) ExistingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.table.ReadRange(ctx, fmt.Sprintf("%s!A2:%s", LeadsSheet, sheet.ColumnLetter(colCompany+1)))
	if err != nil {
		return nil, eris.Wrap(err, "leads: read existing ids")
	}
	ids := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(sheet.Cell(row, colID))
		if id == "" {
			name, company := sheet.Cell(row, colName), sheet.Cell(row, colCompany)
			if strings.TrimSpace(name) == "" || strings.TrimSpace(company) == "" {
				continue
			}
			id = identity.Generate(name, company)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

// Append writes a new lead row after the last one.
func (r *Repository) Append(ctx context.Context, l model.Lead) error {
	err := r.table.AppendRow(ctx, LeadsSheet+"!A2", EncodeNew(l))
	return eris.Wrapf(err, "leads: append %s", l.ID)
}

// List returns every non-empty lead row with its sheet row number.
func (r *Repository) List(ctx context.Context) ([]model.Lead, error) {
	rows, err := r.table.ReadRange(ctx, fmt.Sprintf("%s!A2:%s", LeadsSheet, lastColumn))
	if err != nil {
		return nil, eris.Wrap(err, "leads: list")
	}
	out := make([]model.Lead, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		out = append(out, Decode(row, i+2))
	}
	return out, nil
}

// WriteEvaluation writes score through status for one row in a single
// range update. Profile URL and notes are outside the range.
func (r *Repository) WriteEvaluation(ctx context.Context, row int, ev model.Evaluation, res model.Research, status model.Status) error {
	if row < 2 {
		return eris.Errorf("leads: invalid row %d", row)
	}
	rng := fmt.Sprintf("%s!%s%d:%s%d", LeadsSheet, evalFirst, row, evalLast, row)
	err := r.table.UpdateRange(ctx, rng, [][]string{EncodeEvaluation(ev, res, status)})
	return eris.Wrapf(err, "leads: write evaluation row %d", row)
}

// Settings reads the Config tab in one read. On a read error the defaults
// are returned along with the error.
func (r *Repository) Settings(ctx context.Context) (model.Settings, error) {
	s := r.defaults
	rows, err := r.table.ReadRange(ctx, settingsRange)
	if err != nil {
		return s, eris.Wrap(err, "leads: read settings")
	}
	value := func(i int) string {
		if i >= len(rows) {
			return ""
		}
		return strings.TrimSpace(sheet.Cell(rows[i], 0))
	}

	if v := value(0); v != "" {
		s.ICP = v
	}
	if v := value(1); v != "" {
		s.QueryTemplate = v
	}
	if v := value(2); v != "" {
		s.ListingURL = v
	}
	if n, err := strconv.Atoi(value(3)); err == nil && n > 0 {
		s.MaxPages = n
	}
	if n, err := strconv.Atoi(value(4)); err == nil && n >= 0 {
		s.MaxLeads = n
	}
	if v := value(5); v != "" {
		s.AutoRun = parseFlag(v)
	}
	s.LastRun = value(6)
	return s, nil
}

// TouchWatermark records the last-run time.
func (r *Repository) TouchWatermark(ctx context.Context, at time.Time) error {
	err := r.table.UpdateCell(ctx, watermarkCell, at.Format(WatermarkLayout))
	return eris.Wrap(err, "leads: write watermark")
}

// EnsureLayout writes the Leads header and Config labels where missing.
// Existing values are left alone.
func (r *Repository) EnsureLayout(ctx context.Context) (created bool, err error) {
	headerRange := fmt.Sprintf("%s!A1:%s1", LeadsSheet, lastColumn)
	rows, err := r.table.ReadRange(ctx, headerRange)
	if err != nil {
		return false, eris.Wrap(err, "leads: read header")
	}
	if len(rows) == 0 {
		if err := r.table.UpdateRange(ctx, headerRange, [][]string{Header}); err != nil {
			return false, eris.Wrap(err, "leads: write header")
		}
		created = true
	}

	labels, err := r.table.ReadRange(ctx, ConfigSheet+"!A1:A8")
	if err != nil {
		return created, eris.Wrap(err, "leads: read config labels")
	}
	if len(labels) == 0 {
		if err := r.table.UpdateRange(ctx, settingsLabels, configLabels); err != nil {
			return created, eris.Wrap(err, "leads: write config labels")
		}
		created = true
	}
	return created, nil
}

func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sí", "si", "yes", "true", "1", "on", "✅":
		return true
	}
	return false
}
