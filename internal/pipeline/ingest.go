package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/identity"
	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// ScrapeReport summarizes an extraction pass.
type ScrapeReport struct {
	Candidates int `json:"candidates"`
	Saved      int `json:"saved"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Dropped    int `json:"dropped"`

	// ListingErr is set when the listing source stopped early; the
	// candidates it returned before failing were still ingested.
	ListingErr error `json:"-"`
}

// ingestRun is the state of one extraction pass. It is owned by a single
// call and never shared.
type ingestRun struct {
	seen   map[string]struct{}
	limit  int
	report ScrapeReport
}

func (s *ingestRun) full() bool { return s.report.Saved >= s.limit }

// Ingest loads the id snapshot and ingests candidates in order, saving at
// most maxLeads new rows. It fails only when the snapshot cannot be read.
func (r *Runner) Ingest(ctx context.Context, candidates []model.Candidate, maxLeads int) (ScrapeReport, error) {
	if r.extractor == nil {
		return ScrapeReport{}, eris.Wrap(ErrMissingAdapter, "ingest needs an extractor")
	}
	log := runLogger("ingest")
	run, err := r.newIngestRun(ctx, maxLeads)
	if err != nil {
		return ScrapeReport{}, err
	}
	defer r.touchWatermark(ctx, log)

	r.ingest(ctx, log, run, candidates)
	return run.report, nil
}

func (r *Runner) newIngestRun(ctx context.Context, maxLeads int) (*ingestRun, error) {
	ids, err := r.store.ExistingIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load existing ids")
	}
	return &ingestRun{seen: ids, limit: max(maxLeads, 0)}, nil
}

// scrape loads the snapshot, harvests candidates and ingests them.
func (r *Runner) scrape(ctx context.Context, log *zap.Logger, settings model.Settings) (ScrapeReport, error) {
	run, err := r.newIngestRun(ctx, settings.MaxLeads)
	if err != nil {
		return ScrapeReport{}, err
	}
	log.Info("pipeline: id snapshot loaded", zap.Int("existing", len(run.seen)))

	candidates, err := r.listing.Fetch(ctx, settings.ListingURL, settings.MaxPages)
	if err != nil {
		log.Warn("pipeline: listing source stopped early",
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		run.report.ListingErr = err
	}

	r.ingest(ctx, log, run, candidates)
	log.Info("pipeline: extraction complete",
		zap.Int("candidates", run.report.Candidates),
		zap.Int("saved", run.report.Saved),
		zap.Int("duplicates", run.report.Duplicates),
		zap.Int("skipped", run.report.Skipped),
		zap.Int("failed", run.report.Failed),
		zap.Int("dropped", run.report.Dropped),
	)
	return run.report, nil
}

// ingest applies the dedup and cap rules to candidates in source order.
func (r *Runner) ingest(ctx context.Context, log *zap.Logger, run *ingestRun, candidates []model.Candidate) {
	run.report.Candidates += len(candidates)
	capturedAt := r.now().Format("2006-01-02")

	for i, c := range candidates {
		if run.full() {
			run.report.Dropped += len(candidates) - i
			log.Info("pipeline: per-run cap reached", zap.Int("cap", run.limit), zap.Int("dropped", len(candidates)-i))
			return
		}
		if ctx.Err() != nil {
			log.Warn("pipeline: extraction interrupted", zap.Int("remaining", len(candidates)-i))
			return
		}
		if i > 0 {
			if err := r.leadPacer.Wait(ctx); err != nil {
				log.Warn("pipeline: extraction interrupted", zap.Int("remaining", len(candidates)-i))
				return
			}
		}

		profile, err := r.extractor.Extract(ctx, c.RawText)
		if err != nil {
			run.report.Skipped++
			log.Warn("pipeline: extraction failed", zap.Int("candidate", i), zap.Error(err))
			continue
		}
		profile.Name = strings.TrimSpace(profile.Name)
		profile.Company = strings.TrimSpace(profile.Company)
		if profile.Name == "" || profile.Company == "" {
			run.report.Skipped++
			log.Info("pipeline: candidate missing name or company",
				zap.Int("candidate", i),
				zap.String("name", profile.Name),
				zap.String("company", profile.Company),
			)
			continue
		}

		id := identity.Generate(profile.Name, profile.Company)
		if _, dup := run.seen[id]; dup {
			run.report.Duplicates++
			log.Info("pipeline: duplicate lead skipped",
				zap.String("id", id),
				zap.String("name", profile.Name),
				zap.String("company", profile.Company),
			)
			continue
		}

		lead := model.Lead{
			ID:         id,
			CapturedAt: capturedAt,
			Name:       profile.Name,
			Role:       strings.TrimSpace(profile.Role),
			Company:    profile.Company,
			Source:     r.source,
			ProfileURL: c.ProfileURL,
			Status:     model.StatusPending,
		}
		if err := r.store.Append(ctx, lead); err != nil {
			run.report.Failed++
			log.Warn("pipeline: failed to save lead", zap.String("id", id), zap.String("company", lead.Company), zap.Error(err))
			continue
		}
		run.seen[id] = struct{}{}
		run.report.Saved++
		log.Info("pipeline: lead saved", zap.String("id", id), zap.String("name", lead.Name), zap.String("company", lead.Company))
	}
}
