package pipeline

import (
	"cmp"
	"context"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// StatusReport counts leads by lifecycle state.
type StatusReport struct {
	Total       int    `json:"total"`
	Pending     int    `json:"pending"`
	Qualified   int    `json:"qualified"`
	UnderReview int    `json:"under_review"`
	Discarded   int    `json:"discarded"`
	External    int    `json:"external"`
	Unset       int    `json:"unset"`
	LastRun     string `json:"last_run,omitempty"`

	// TopLeads are the highest scoring leads at or above the qualified
	// threshold, whatever their current status.
	TopLeads []model.Lead `json:"top_leads"`
}

// Status reads the whole store and summarizes it. It does not write.
func (r *Runner) Status(ctx context.Context) (StatusReport, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return StatusReport{}, eris.Wrap(err, "pipeline: list leads")
	}

	rep := StatusReport{Total: len(all), LastRun: r.Settings(ctx).LastRun}
	var top []model.Lead
	for _, l := range all {
		switch {
		case l.Status == model.StatusPending:
			rep.Pending++
		case l.Status == model.StatusQualified:
			rep.Qualified++
		case l.Status == model.StatusUnderReview:
			rep.UnderReview++
		case l.Status == model.StatusDiscarded:
			rep.Discarded++
		case l.Status.IsExternal():
			rep.External++
		default:
			rep.Unset++
		}
		if l.Evaluated() && *l.Score >= r.policy.Qualified {
			top = append(top, l)
		}
	}

	slices.SortStableFunc(top, func(a, b model.Lead) int {
		return cmp.Compare(*b.Score, *a.Score)
	})
	if len(top) > r.topN {
		top = top[:r.topN]
	}
	rep.TopLeads = top
	return rep, nil
}
