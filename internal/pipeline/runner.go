package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

// Configuration errors. They abort a run before any work is attempted.
var (
	ErrNoListingURL   = errors.New("pipeline: no listing source URL configured")
	ErrMissingAdapter = errors.New("pipeline: required adapter not configured")
)

// DefaultSource tags leads harvested from the listing source.
const DefaultSource = "listing"

// DefaultTopN is the number of qualified leads listed in a digest.
const DefaultTopN = 5

// Runner sequences the pipeline modes against one lead store.
type Runner struct {
	store      LeadStore
	listing    ListingSource
	extractor  Extractor
	researcher Researcher
	evaluator  Evaluator
	notifier   Notifier

	policy    RoutePolicy
	leadPacer resilience.Pacer
	source    string
	topN      int
	sheetURL  string
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithListing sets the listing source used by extraction.
func WithListing(s ListingSource) Option { return func(r *Runner) { r.listing = s } }

// WithExtractor sets the profile extractor.
func WithExtractor(e Extractor) Option { return func(r *Runner) { r.extractor = e } }

// WithResearcher sets the company researcher.
func WithResearcher(res Researcher) Option { return func(r *Runner) { r.researcher = res } }

// WithEvaluator sets the ICP evaluator.
func WithEvaluator(e Evaluator) Option { return func(r *Runner) { r.evaluator = e } }

// WithNotifier sets the digest notifier.
func WithNotifier(n Notifier) Option { return func(r *Runner) { r.notifier = n } }

// WithPolicy overrides the routing thresholds.
func WithPolicy(p RoutePolicy) Option { return func(r *Runner) { r.policy = p } }

// WithLeadPacer sets the pause between per-lead adapter calls.
func WithLeadPacer(p resilience.Pacer) Option { return func(r *Runner) { r.leadPacer = p } }

// WithSource overrides the source tag written on new leads.
func WithSource(s string) Option {
	return func(r *Runner) {
		if s != "" {
			r.source = s
		}
	}
}

// WithTopN sets how many qualified leads a digest lists.
func WithTopN(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.topN = n
		}
	}
}

// WithSheetURL sets the link included in digests.
func WithSheetURL(u string) Option { return func(r *Runner) { r.sheetURL = u } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New creates a Runner over store.
func New(store LeadStore, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		policy: DefaultRoutePolicy(),
		source: DefaultSource,
		topN:   DefaultTopN,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FullReport summarizes a full-mode run.
type FullReport struct {
	Scrape   ScrapeReport
	Evaluate EvaluateReport
	Notified bool
}

// Scrape runs extraction mode.
func (r *Runner) Scrape(ctx context.Context) (ScrapeReport, error) {
	log := runLogger("scrape")
	settings, err := r.prepare(ctx, log, "scrape")
	if err != nil {
		return ScrapeReport{}, err
	}
	defer r.touchWatermark(ctx, log)

	return r.scrape(ctx, log, settings)
}

// Research runs evaluation mode. The digest is built but not sent.
func (r *Runner) Research(ctx context.Context) (EvaluateReport, error) {
	log := runLogger("research")
	settings, err := r.prepare(ctx, log, "research")
	if err != nil {
		return EvaluateReport{}, err
	}
	defer r.touchWatermark(ctx, log)

	return r.evaluate(ctx, log, settings)
}

// Full runs extraction, then evaluation, then sends the digest when at
// least one lead was evaluated.
func (r *Runner) Full(ctx context.Context) (FullReport, error) {
	log := runLogger("full")
	settings, err := r.prepare(ctx, log, "full")
	if err != nil {
		return FullReport{}, err
	}
	defer r.touchWatermark(ctx, log)

	var rep FullReport
	rep.Scrape, err = r.scrape(ctx, log, settings)
	if err != nil {
		return rep, err
	}
	rep.Evaluate, err = r.evaluate(ctx, log, settings)
	if err != nil {
		return rep, err
	}
	if rep.Evaluate.Evaluated > 0 {
		rep.Notified = r.notify(ctx, log, rep.Evaluate.Digest)
	}
	return rep, nil
}

// Notify sends digest through the configured notifier. Delivery failures
// are logged and reported as false.
func (r *Runner) Notify(ctx context.Context, digest model.Digest) bool {
	return r.notify(ctx, runLogger("notify"), digest)
}

// Settings reads the run settings, falling back to defaults on error.
func (r *Runner) Settings(ctx context.Context) model.Settings {
	s, err := r.store.Settings(ctx)
	if err != nil {
		zap.L().Warn("pipeline: settings unavailable, using defaults", zap.Error(err))
	}
	return s
}

// prepare reads settings and checks the adapters and configuration mode needs.
func (r *Runner) prepare(ctx context.Context, log *zap.Logger, mode string) (model.Settings, error) {
	var missing []string
	needScrape := mode == "scrape" || mode == "full"
	needEval := mode == "research" || mode == "full"
	if needScrape && r.listing == nil {
		missing = append(missing, "listing")
	}
	if needScrape && r.extractor == nil {
		missing = append(missing, "extractor")
	}
	if needEval && r.researcher == nil {
		missing = append(missing, "researcher")
	}
	if needEval && r.evaluator == nil {
		missing = append(missing, "evaluator")
	}
	if len(missing) > 0 {
		return model.Settings{}, eris.Wrapf(ErrMissingAdapter, "%s needs %v", mode, missing)
	}

	settings, err := r.store.Settings(ctx)
	if err != nil {
		log.Warn("pipeline: settings unavailable, using defaults", zap.Error(err))
	}
	if needScrape && settings.ListingURL == "" {
		return settings, ErrNoListingURL
	}
	log.Info("pipeline: run starting",
		zap.Int("max_pages", settings.MaxPages),
		zap.Int("max_leads", settings.MaxLeads),
		zap.String("last_run", settings.LastRun),
	)
	return settings, nil
}

func (r *Runner) notify(ctx context.Context, log *zap.Logger, digest model.Digest) bool {
	if r.notifier == nil {
		log.Info("pipeline: no notifier configured, digest not sent")
		return false
	}
	if err := r.notifier.Notify(ctx, digest); err != nil {
		log.Warn("pipeline: digest delivery failed", zap.Error(err))
		return false
	}
	log.Info("pipeline: digest sent",
		zap.Int("total", digest.Total),
		zap.Int("qualified", digest.Qualified),
		zap.Int("discarded", digest.Discarded),
	)
	return true
}

// touchWatermark records the run time even when ctx has been cancelled.
func (r *Runner) touchWatermark(ctx context.Context, log *zap.Logger) {
	if err := r.store.TouchWatermark(context.WithoutCancel(ctx), r.now()); err != nil {
		log.Warn("pipeline: failed to write watermark", zap.Error(err))
	}
}

func runLogger(mode string) *zap.Logger {
	return zap.L().With(zap.String("run_id", uuid.NewString()), zap.String("mode", mode))
}
