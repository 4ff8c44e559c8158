package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

type mockListing struct {
	mock.Mock
}

func (m *mockListing) Fetch(ctx context.Context, listingURL string, maxPages int) ([]model.Candidate, error) {
	args := m.Called(ctx, listingURL, maxPages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Candidate), args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, rawText string) (model.Profile, error) {
	args := m.Called(ctx, rawText)
	return args.Get(0).(model.Profile), args.Error(1)
}

type mockResearcher struct {
	mock.Mock
}

func (m *mockResearcher) Research(ctx context.Context, company, queryTemplate string) (model.Research, error) {
	args := m.Called(ctx, company, queryTemplate)
	return args.Get(0).(model.Research), args.Error(1)
}

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) Evaluate(ctx context.Context, profileText, icp string) (model.Evaluation, error) {
	args := m.Called(ctx, profileText, icp)
	return args.Get(0).(model.Evaluation), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, digest model.Digest) error {
	args := m.Called(ctx, digest)
	return args.Error(0)
}
