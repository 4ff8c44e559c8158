package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a lead.
type Status string

const (
	StatusUnset       Status = ""
	StatusPending     Status = "pending"
	StatusQualified   Status = "qualified"
	StatusUnderReview Status = "under_review"
	StatusDiscarded   Status = "discarded"
)

// legacyStatusLabels maps display labels written by earlier sheet layouts to
// canonical statuses. Matching is by substring on the lowercased cell value,
// so decorated labels such as "🔄 Pendiente" decode too.
var legacyStatusLabels = []struct {
	label  string
	status Status
}{
	{"pendiente", StatusPending},
	{"revisar", StatusQualified},
	{"evaluar", StatusUnderReview},
	{"descartado", StatusDiscarded},
}

// ParseStatus decodes a stored status cell. Canonical values and legacy labels
// map to the known statuses; any other non-empty value is returned verbatim
// and reported as external by IsExternal.
func ParseStatus(raw string) Status {
	v := strings.TrimSpace(raw)
	if v == "" {
		return StatusUnset
	}
	switch s := Status(strings.ToLower(v)); s {
	case StatusPending, StatusQualified, StatusUnderReview, StatusDiscarded:
		return s
	}
	lower := strings.ToLower(v)
	for _, l := range legacyStatusLabels {
		if strings.Contains(lower, l.label) {
			return l.status
		}
	}
	return Status(v)
}

// IsExternal reports whether s is a downstream marker set outside the
// pipeline (for example "Enviado a CRM"). The pipeline never rewrites it.
func (s Status) IsExternal() bool {
	switch s {
	case StatusUnset, StatusPending, StatusQualified, StatusUnderReview, StatusDiscarded:
		return false
	}
	return true
}

// IsTerminal reports whether the status ends a lead's pass through the pipeline.
func (s Status) IsTerminal() bool {
	return s == StatusQualified || s == StatusUnderReview || s == StatusDiscarded || s.IsExternal()
}

// Lead is one prospect row in the lead store.
type Lead struct {
	Row        int    `json:"row,omitempty"`
	ID         string `json:"id"`
	CapturedAt string `json:"captured_at"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Company    string `json:"company"`
	Source     string `json:"source"`
	ProfileURL string `json:"profile_url,omitempty"`

	// Score and Fit are both nil until the lead has been evaluated.
	Score *int  `json:"score,omitempty"`
	Fit   *bool `json:"fit,omitempty"`

	Reason         string   `json:"reason,omitempty"`
	EnrichmentText string   `json:"enrichment_text,omitempty"`
	SourceURLs     []string `json:"source_urls,omitempty"`
	Status         Status   `json:"status"`
	Notes          string   `json:"notes,omitempty"`
}

// Evaluated reports whether score and fit are both present.
func (l Lead) Evaluated() bool {
	return l.Score != nil && l.Fit != nil
}

// Candidate is a raw profile harvested from a listing page.
type Candidate struct {
	RawText    string `json:"raw_text" yaml:"raw_text"`
	ProfileURL string `json:"profile_url,omitempty" yaml:"profile_url"`
}

// Profile is the structured result of extracting a Candidate.
type Profile struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
}

// Research is the enrichment summary for a company.
type Research struct {
	Summary string   `json:"summary"`
	URLs    []string `json:"urls,omitempty"`
}

// Evaluation is the scored verdict for a lead against the ICP.
type Evaluation struct {
	Score  int    `json:"score"`
	Fit    bool   `json:"fit"`
	Reason string `json:"reason"`

	// Degraded is set when the model output could not be used. The verdict
	// then carries fit=false, score=0 and an explanatory reason.
	Degraded bool `json:"degraded,omitempty"`
}

// DigestLead is one qualified lead listed in a notification.
type DigestLead struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

// Digest is the payload handed to notifiers after an evaluation pass.
type Digest struct {
	Total     int          `json:"total"`
	Qualified int          `json:"qualified"`
	Discarded int          `json:"discarded"`
	TopLeads  []DigestLead `json:"top_leads"`
	SheetURL  string       `json:"sheet_url,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Settings are the run settings read from the store's configuration tab.
type Settings struct {
	ICP           string
	QueryTemplate string
	ListingURL    string
	MaxPages      int
	MaxLeads      int
	AutoRun       bool
	LastRun       string
}
