package pipeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// BuildDigest assembles the notification payload. Total counts leads whose
// evaluation was written; top leads are ordered by score, highest first,
// keeping evaluation order among equal scores.
func BuildDigest(rep EvaluateReport, qualified []model.DigestLead, topN int, sheetURL string, at time.Time) model.Digest {
	top := slices.Clone(qualified)
	slices.SortStableFunc(top, func(a, b model.DigestLead) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	return model.Digest{
		Total:     rep.Evaluated,
		Qualified: rep.Qualified,
		Discarded: rep.Discarded,
		TopLeads:  top,
		SheetURL:  sheetURL,
		CreatedAt: at,
	}
}
