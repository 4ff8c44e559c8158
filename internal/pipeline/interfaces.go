// Package pipeline runs the lead lifecycle: extraction with deduplication,
// research and scoring, status routing and the run digest.
package pipeline

import (
	"context"
	"time"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// ListingSource harvests raw candidates from a paginated listing. On a
// mid-listing failure it returns the candidates gathered so far with the error.
type ListingSource interface {
	Fetch(ctx context.Context, listingURL string, maxPages int) ([]model.Candidate, error)
}

// Extractor turns scraped text into a structured profile.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (model.Profile, error)
}

// Researcher gathers enrichment text for a company. No results is not an
// error: implementations return a sentinel summary instead.
type Researcher interface {
	Research(ctx context.Context, company, queryTemplate string) (model.Research, error)
}

// Evaluator scores a profile against the ICP. Unusable model output comes
// back as a Degraded evaluation rather than an error.
type Evaluator interface {
	Evaluate(ctx context.Context, profileText, icp string) (model.Evaluation, error)
}

// Notifier delivers the run digest.
type Notifier interface {
	Notify(ctx context.Context, digest model.Digest) error
}

// LeadStore is the typed lead table.
type LeadStore interface {
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	Append(ctx context.Context, lead model.Lead) error
	List(ctx context.Context) ([]model.Lead, error)
	WriteEvaluation(ctx context.Context, row int, ev model.Evaluation, res model.Research, status model.Status) error
	Settings(ctx context.Context) (model.Settings, error)
	TouchWatermark(ctx context.Context, at time.Time) error
}
