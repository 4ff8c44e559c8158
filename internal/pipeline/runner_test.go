package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/identity"
	"github.com/fsotosa-ops/meridian-bdr/internal/leads"
	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/sheet"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const testListingURL = "https://listing.example/search"

var (
	testDefaults = model.Settings{
		ICP:           "importers in Mexico",
		QueryTemplate: "{company} importador México",
		ListingURL:    testListingURL,
		MaxPages:      3,
		MaxLeads:      50,
	}
	fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
)

type fixture struct {
	table      *sheet.MemoryTable
	store      *leads.Repository
	listing    *mockListing
	extractor  *mockExtractor
	researcher *mockResearcher
	evaluator  *mockEvaluator
	notifier   *mockNotifier
}

func newFixture(rows ...[]string) *fixture {
	table := sheet.NewMemory()
	table.Seed(leads.LeadsSheet, append([][]string{leads.Header}, rows...))
	return &fixture{
		table:      table,
		store:      leads.NewRepository(table, testDefaults),
		listing:    &mockListing{},
		extractor:  &mockExtractor{},
		researcher: &mockResearcher{},
		evaluator:  &mockEvaluator{},
		notifier:   &mockNotifier{},
	}
}

func (f *fixture) runner(opts ...Option) *Runner {
	base := []Option{
		WithListing(f.listing),
		WithExtractor(f.extractor),
		WithResearcher(f.researcher),
		WithEvaluator(f.evaluator),
		WithNotifier(f.notifier),
		WithSheetURL("https://sheet.example"),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(f.store, append(base, opts...)...)
}

func (f *fixture) setConfig(t *testing.T, maxLeads string) {
	t.Helper()
	require.NoError(t, f.table.UpdateRange(context.Background(), "Config!B2:B8", [][]string{
		{"importers in Mexico"}, {"{company} importador México"}, {testListingURL}, {"2"}, {maxLeads}, {"sí"}, {""},
	}))
}

func (f *fixture) leadsList(t *testing.T) []model.Lead {
	t.Helper()
	list, err := f.store.List(context.Background())
	require.NoError(t, err)
	return list
}

func candidates(texts ...string) []model.Candidate {
	out := make([]model.Candidate, len(texts))
	for i, s := range texts {
		out[i] = model.Candidate{RawText: s, ProfileURL: "https://profiles.example/" + s}
	}
	return out
}

func pendingRow(name, role, company, profileURL string) []string {
	return []string{identity.Generate(name, company), "2026-05-01", name, role, company, "listing", profileURL, "", "", "", "", "", "pending", ""}
}

func TestScrape_EndToEndThenResearch(t *testing.T) {
	f := newFixture(pendingRow("María López", "COO", "Importadora Sol", "https://profiles.example/old"))
	// the stored lead is already evaluated so only new rows are pending
	require.NoError(t, f.table.UpdateRange(context.Background(), "Leads!H2:M2", [][]string{{"50", "false", "meh", "", "", "under_review"}}))

	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("c1", "c2", "c3"), nil)
	f.extractor.On("Extract", mock.Anything, "c1").Return(model.Profile{Name: "Ana Ruiz", Role: "CEO", Company: "Acme"}, nil)
	f.extractor.On("Extract", mock.Anything, "c2").Return(model.Profile{Name: "  maría  LÓPEZ ", Role: "COO", Company: "importadora sol"}, nil)
	f.extractor.On("Extract", mock.Anything, "c3").Return(model.Profile{Name: "Luis Pérez", Role: "CFO", Company: "Globex"}, nil)

	r := f.runner()
	rep, err := r.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Candidates)
	assert.Equal(t, 2, rep.Saved)
	assert.Equal(t, 1, rep.Duplicates)

	list := f.leadsList(t)
	require.Len(t, list, 3)
	for _, l := range list[1:] {
		assert.Equal(t, model.StatusPending, l.Status)
		assert.Equal(t, "2026-05-04", l.CapturedAt)
		assert.Equal(t, DefaultSource, l.Source)
	}
	assert.Equal(t, "https://profiles.example/c1", list[1].ProfileURL)

	research := model.Research{Summary: "imports steel", URLs: []string{"https://a", "https://b"}}
	f.researcher.On("Research", mock.Anything, "Acme", testDefaults.QueryTemplate).Return(research, nil)
	f.researcher.On("Research", mock.Anything, "Globex", testDefaults.QueryTemplate).Return(research, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool { return strings.Contains(s, "Acme") }), testDefaults.ICP).
		Return(model.Evaluation{Score: 85, Fit: true, Reason: "strong importer"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool { return strings.Contains(s, "Globex") }), testDefaults.ICP).
		Return(model.Evaluation{Score: 35, Fit: false, Reason: "no imports"}, nil)

	var sent model.Digest
	f.notifier.On("Notify", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(model.Digest)
	}).Return(nil)

	erep, err := r.Research(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, erep.Evaluated)
	assert.Equal(t, 1, erep.Qualified)
	assert.Equal(t, 1, erep.Discarded)
	assert.Equal(t, 2, erep.Digest.Total)
	require.Len(t, erep.Digest.TopLeads, 1)
	assert.Equal(t, "Acme", erep.Digest.TopLeads[0].Company)

	// research mode builds but does not send the digest
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	assert.True(t, r.Notify(context.Background(), erep.Digest))
	assert.Equal(t, 2, sent.Total)
	assert.Equal(t, 1, sent.Qualified)
	assert.Equal(t, 1, sent.Discarded)

	list = f.leadsList(t)
	assert.Equal(t, model.StatusQualified, list[1].Status)
	assert.Equal(t, model.StatusDiscarded, list[2].Status)
	assert.Equal(t, "https://profiles.example/c1", list[1].ProfileURL)
	assert.Equal(t, []string{"https://a", "https://b"}, list[1].SourceURLs)
}

func TestScrape_SecondRunSavesNothing(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("c1", "c2"), nil)
	f.extractor.On("Extract", mock.Anything, "c1").Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)
	f.extractor.On("Extract", mock.Anything, "c2").Return(model.Profile{Name: "Luis", Company: "Globex"}, nil)

	r := f.runner()
	first, err := r.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Saved)

	second, err := r.Scrape(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Saved)
	assert.Equal(t, 2, second.Duplicates)

	seen := map[string]bool{}
	for _, l := range f.leadsList(t) {
		assert.False(t, seen[l.ID], "duplicate id %s", l.ID)
		seen[l.ID] = true
	}
	assert.Len(t, seen, 2)
}

func TestScrape_DuplicateWithinOneRun(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("c1", "c2"), nil)
	f.extractor.On("Extract", mock.Anything, mock.Anything).Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)

	rep, err := f.runner().Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Saved)
	assert.Equal(t, 1, rep.Duplicates)
}

func TestScrape_CapRespected(t *testing.T) {
	f := newFixture()
	f.setConfig(t, "2")
	f.listing.On("Fetch", mock.Anything, testListingURL, 2).Return(candidates("a", "b", "c", "d", "e"), nil)
	for _, s := range []string{"a", "b", "c"} {
		f.extractor.On("Extract", mock.Anything, s).Return(model.Profile{Name: "Person " + s, Company: "Co " + s}, nil)
	}

	rep, err := f.runner().Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Saved)
	assert.Equal(t, 3, rep.Dropped)
	assert.Len(t, f.leadsList(t), 2)
	f.extractor.AssertNumberOfCalls(t, "Extract", 2)
}

func TestScrape_ZeroCapSavesNothing(t *testing.T) {
	f := newFixture()
	f.setConfig(t, "0")
	f.listing.On("Fetch", mock.Anything, testListingURL, 2).Return(candidates("a"), nil)

	rep, err := f.runner().Scrape(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Saved)
	assert.Equal(t, 1, rep.Dropped)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestScrape_SkipsIncompleteAndFailedExtractions(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("a", "b", "c", "d"), nil)
	f.extractor.On("Extract", mock.Anything, "a").Return(model.Profile{}, errors.New("model timeout"))
	f.extractor.On("Extract", mock.Anything, "b").Return(model.Profile{Name: "Ana", Company: "  "}, nil)
	f.extractor.On("Extract", mock.Anything, "c").Return(model.Profile{Name: "", Company: "Acme"}, nil)
	f.extractor.On("Extract", mock.Anything, "d").Return(model.Profile{Name: "Luis", Company: "Globex"}, nil)

	rep, err := f.runner().Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Skipped)
	assert.Equal(t, 1, rep.Saved)
}

func TestScrape_ListingPartialFailure(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("a"), errors.New("page 2: 500"))
	f.extractor.On("Extract", mock.Anything, "a").Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)

	rep, err := f.runner().Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Saved)
	assert.Error(t, rep.ListingErr)
}

func TestScrape_NoListingURL(t *testing.T) {
	f := newFixture()
	noURL := testDefaults
	noURL.ListingURL = ""
	f.store = leads.NewRepository(f.table, noURL)

	_, err := f.runner().Scrape(context.Background())
	assert.ErrorIs(t, err, ErrNoListingURL)
	f.listing.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.table.Rows(leads.ConfigSheet), "watermark is not written on a config error")
}

func TestScrape_SnapshotReadFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.store = leads.NewRepository(readFailTable{Table: f.table, sheet: leads.LeadsSheet}, testDefaults)

	_, err := f.runner().Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load existing ids")
	f.listing.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestScrape_MissingAdapter(t *testing.T) {
	f := newFixture()
	_, err := New(f.store, WithListing(f.listing)).Scrape(context.Background())
	assert.ErrorIs(t, err, ErrMissingAdapter)
}

func TestScrape_WritesWatermark(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return([]model.Candidate{}, nil)

	_, err := f.runner().Scrape(context.Background())
	require.NoError(t, err)

	s, err := f.store.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04 10:30", s.LastRun)
}

func TestScrape_CancelledContextStopsIngest(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("a", "b"), nil)
	f.extractor.On("Extract", mock.Anything, "a").Run(func(mock.Arguments) { cancel() }).
		Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)

	rep, err := f.runner().Scrape(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Saved)
	f.extractor.AssertNumberOfCalls(t, "Extract", 1)

	s, err := f.store.Settings(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.LastRun, "watermark survives cancellation")
}

func TestResearch_RoutingBoundaries(t *testing.T) {
	scores := map[string]int{"A": 70, "B": 69, "C": 40, "D": 39}
	f := newFixture(
		pendingRow("P1", "", "A", ""),
		pendingRow("P2", "", "B", ""),
		pendingRow("P3", "", "C", ""),
		pendingRow("P4", "", "D", ""),
	)
	for company, score := range scores {
		f.researcher.On("Research", mock.Anything, company, mock.Anything).Return(model.Research{Summary: company}, nil)
		f.evaluator.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool { return strings.Contains(s, "Company: "+company+"\n") }), mock.Anything).
			Return(model.Evaluation{Score: score, Fit: score >= 70}, nil)
	}

	rep, err := f.runner().Research(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Evaluated)

	want := []model.Status{model.StatusQualified, model.StatusUnderReview, model.StatusUnderReview, model.StatusDiscarded}
	for i, l := range f.leadsList(t) {
		assert.Equal(t, want[i], l.Status, l.Company)
	}
}

func TestResearch_DegradedEvaluationLeavesLeadPending(t *testing.T) {
	f := newFixture(pendingRow("Ana", "CEO", "Acme", "https://p/ana"))
	f.researcher.On("Research", mock.Anything, "Acme", mock.Anything).Return(model.Research{Summary: "x"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return(model.Evaluation{Score: 0, Fit: false, Reason: "evaluation output could not be parsed", Degraded: true}, nil)

	rep, err := f.runner().Research(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Evaluated)
	assert.Equal(t, 1, rep.Deferred)

	l := f.leadsList(t)[0]
	assert.Equal(t, model.StatusPending, l.Status)
	assert.Nil(t, l.Score)
	assert.Nil(t, l.Fit)
}

func TestResearch_AdapterErrorsLeaveLeadPending(t *testing.T) {
	f := newFixture(
		pendingRow("Ana", "CEO", "Acme", ""),
		pendingRow("Luis", "CFO", "Globex", ""),
		pendingRow("Eva", "CTO", "Initech", ""),
	)
	f.researcher.On("Research", mock.Anything, "Acme", mock.Anything).Return(model.Research{}, errors.New("serper down"))
	f.researcher.On("Research", mock.Anything, "Globex", mock.Anything).Return(model.Research{Summary: "g"}, nil)
	f.researcher.On("Research", mock.Anything, "Initech", mock.Anything).Return(model.Research{Summary: "i"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool { return strings.Contains(s, "Globex") }), mock.Anything).
		Return(model.Evaluation{}, errors.New("rate limited"))
	f.evaluator.On("Evaluate", mock.Anything, mock.MatchedBy(func(s string) bool { return strings.Contains(s, "Initech") }), mock.Anything).
		Return(model.Evaluation{Score: 140, Fit: true}, nil)

	rep, err := f.runner().Research(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Deferred)
	assert.Zero(t, rep.Evaluated)
	for _, l := range f.leadsList(t) {
		assert.Equal(t, model.StatusPending, l.Status, l.Company)
		assert.False(t, l.Evaluated())
	}
}

func TestResearch_SkipsNonPendingRows(t *testing.T) {
	external := pendingRow("Ana", "CEO", "Acme", "")
	external[12] = "Enviado a CRM"
	unset := pendingRow("Luis", "CFO", "Globex", "")
	unset[12] = ""
	legacy := pendingRow("Eva", "CTO", "Initech", "")
	legacy[12] = "🔄 Pendiente"

	f := newFixture(external, unset, legacy)
	f.researcher.On("Research", mock.Anything, "Initech", mock.Anything).Return(model.Research{Summary: "i"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(model.Evaluation{Score: 50}, nil)

	rep, err := f.runner().Research(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Pending)
	assert.Equal(t, 1, rep.UnderReview)

	rows := f.table.Rows(leads.LeadsSheet)
	assert.Equal(t, "Enviado a CRM", rows[1][12])
	assert.Equal(t, "", rows[2][12])
	assert.Equal(t, "under_review", rows[3][12])
}

func TestResearch_PreservesProfileURLAndNotes(t *testing.T) {
	row := pendingRow("Ana", "CEO", "Acme", "https://profiles.example/ana")
	row[13] = "met at expo"
	f := newFixture(row)
	f.researcher.On("Research", mock.Anything, "Acme", mock.Anything).
		Return(model.Research{Summary: "s", URLs: []string{"u1", "u2", "u3", "u4"}}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(model.Evaluation{Score: 90, Fit: true, Reason: "fit"}, nil)

	_, err := f.runner().Research(context.Background())
	require.NoError(t, err)

	l := f.leadsList(t)[0]
	assert.Equal(t, "https://profiles.example/ana", l.ProfileURL)
	assert.Equal(t, "met at expo", l.Notes)
	assert.Equal(t, []string{"u1", "u2", "u3"}, l.SourceURLs)
	require.NotNil(t, l.Score)
	assert.Equal(t, 90, *l.Score)
}

func TestResearch_ListFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.store = leads.NewRepository(readFailTable{Table: f.table, sheet: leads.LeadsSheet}, testDefaults)

	_, err := f.runner().Research(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list leads")
}

func TestFull_NotifiesWhenLeadsEvaluated(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("a"), nil)
	f.extractor.On("Extract", mock.Anything, "a").Return(model.Profile{Name: "Ana", Role: "CEO", Company: "Acme"}, nil)
	f.researcher.On("Research", mock.Anything, "Acme", mock.Anything).Return(model.Research{Summary: "s"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(model.Evaluation{Score: 75, Fit: true, Reason: "ok"}, nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(d model.Digest) bool {
		return d.Total == 1 && d.Qualified == 1 && d.SheetURL == "https://sheet.example" && d.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	rep, err := f.runner().Full(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Scrape.Saved)
	assert.Equal(t, 1, rep.Evaluate.Qualified)
	assert.True(t, rep.Notified)
	f.notifier.AssertExpectations(t)
}

func TestFull_NoEvaluationsNoNotification(t *testing.T) {
	f := newFixture()
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return([]model.Candidate{}, nil)

	rep, err := f.runner().Full(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Notified)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestFull_NotifyFailureIsNotFatal(t *testing.T) {
	f := newFixture(pendingRow("Ana", "CEO", "Acme", ""))
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return([]model.Candidate{}, nil)
	f.researcher.On("Research", mock.Anything, "Acme", mock.Anything).Return(model.Research{Summary: "s"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(model.Evaluation{Score: 20}, nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp refused"))

	rep, err := f.runner().Full(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Notified)
	assert.Equal(t, 1, rep.Evaluate.Discarded)
}

func TestStatus(t *testing.T) {
	scored := func(name, company, score, status string) []string {
		row := pendingRow(name, "", company, "")
		row[7], row[8], row[12] = score, "true", status
		return row
	}
	f := newFixture(
		pendingRow("A", "", "a", ""),
		scored("B", "b", "91", "qualified"),
		scored("C", "c", "75", "Enviado a CRM"),
		scored("D", "d", "55", "under_review"),
		scored("E", "e", "10", "discarded"),
		scored("F", "f", "99", "qualified"),
	)
	unset := pendingRow("G", "", "g", "")
	unset[12] = ""
	require.NoError(t, f.table.AppendRow(context.Background(), "Leads!A2", unset))

	rep, err := f.runner().Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Total)
	assert.Equal(t, 1, rep.Pending)
	assert.Equal(t, 2, rep.Qualified)
	assert.Equal(t, 1, rep.UnderReview)
	assert.Equal(t, 1, rep.Discarded)
	assert.Equal(t, 1, rep.External)
	assert.Equal(t, 1, rep.Unset)
	require.Len(t, rep.TopLeads, 3)
	assert.Equal(t, "f", rep.TopLeads[0].Company)
	assert.Equal(t, "b", rep.TopLeads[1].Company)
	assert.Equal(t, "c", rep.TopLeads[2].Company)
}

func TestIngest_Direct(t *testing.T) {
	f := newFixture()
	f.extractor.On("Extract", mock.Anything, "a").Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)

	rep, err := New(f.store, WithExtractor(f.extractor), WithSource("import")).
		Ingest(context.Background(), candidates("a"), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Saved)
	assert.Equal(t, "import", f.leadsList(t)[0].Source)
}

func TestIngest_WritesWatermark(t *testing.T) {
	f := newFixture()
	f.extractor.On("Extract", mock.Anything, "a").Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)

	_, err := New(f.store, WithExtractor(f.extractor), WithClock(func() time.Time { return fixedNow })).
		Ingest(context.Background(), candidates("a"), 10)
	require.NoError(t, err)

	s, err := f.store.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04 10:30", s.LastRun)
}

func TestScrape_FailedAppendKeepsIDAvailable(t *testing.T) {
	f := newFixture()
	store := &faultyStore{Repository: f.store, appendFails: 1}
	f.listing.On("Fetch", mock.Anything, testListingURL, 3).Return(candidates("a", "b", "c"), nil)
	f.extractor.On("Extract", mock.Anything, "a").Return(model.Profile{Name: "Ana", Company: "Acme"}, nil)
	f.extractor.On("Extract", mock.Anything, "b").Return(model.Profile{Name: "Luis", Company: "Globex"}, nil)
	f.extractor.On("Extract", mock.Anything, "c").Return(model.Profile{Name: " ana ", Company: "ACME"}, nil)

	r := New(store,
		WithListing(f.listing),
		WithExtractor(f.extractor),
		WithClock(func() time.Time { return fixedNow }),
	)
	rep, err := r.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 2, rep.Saved)
	assert.Zero(t, rep.Duplicates)

	list := f.leadsList(t)
	require.Len(t, list, 2)
	assert.Equal(t, "Globex", list[0].Company)
	assert.Equal(t, "ACME", list[1].Company)
	assert.Equal(t, identity.Generate("Ana", "Acme"), list[1].ID)
}

func TestResearch_WriteFailureLeavesLeadPending(t *testing.T) {
	f := newFixture(
		pendingRow("Ana", "CEO", "Acme", ""),
		pendingRow("Luis", "CFO", "Globex", ""),
	)
	store := &faultyStore{Repository: f.store, failEvalRow: 2}
	f.researcher.On("Research", mock.Anything, mock.Anything, mock.Anything).Return(model.Research{Summary: "s"}, nil)
	f.evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(model.Evaluation{Score: 80, Fit: true, Reason: "ok"}, nil)

	r := New(store,
		WithResearcher(f.researcher),
		WithEvaluator(f.evaluator),
		WithClock(func() time.Time { return fixedNow }),
	)
	rep, err := r.Research(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deferred)
	assert.Equal(t, 1, rep.Evaluated)
	assert.Equal(t, 1, rep.Qualified)
	f.evaluator.AssertNumberOfCalls(t, "Evaluate", 2)

	list := f.leadsList(t)
	require.Len(t, list, 2)
	assert.Equal(t, model.StatusPending, list[0].Status)
	assert.False(t, list[0].Evaluated())
	assert.Equal(t, model.StatusQualified, list[1].Status)
}

// faultyStore fails a number of appends and every evaluation write to one row.
type faultyStore struct {
	*leads.Repository
	appendFails int
	failEvalRow int
}

func (s *faultyStore) Append(ctx context.Context, lead model.Lead) error {
	if s.appendFails > 0 {
		s.appendFails--
		return errors.New("sheets: append: 503")
	}
	return s.Repository.Append(ctx, lead)
}

func (s *faultyStore) WriteEvaluation(ctx context.Context, row int, ev model.Evaluation, res model.Research, status model.Status) error {
	if row == s.failEvalRow {
		return errors.New("sheets: update: 503")
	}
	return s.Repository.WriteEvaluation(ctx, row, ev, res, status)
}

// readFailTable fails every read of one tab.
type readFailTable struct {
	sheet.Table
	sheet string
}

func (r readFailTable) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	parsed, err := sheet.ParseRange(rng)
	if err == nil && parsed.Sheet == r.sheet {
		return nil, errors.New("quota exceeded")
	}
	return r.Table.ReadRange(ctx, rng)
}
