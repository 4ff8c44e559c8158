package research

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/jina"
	"github.com/fsotosa-ops/meridian-bdr/pkg/perplexity"
	"github.com/fsotosa-ops/meridian-bdr/pkg/serper"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockSerper struct {
	mock.Mock
}

func (m *mockSerper) Search(ctx context.Context, req serper.SearchRequest) (*serper.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serper.SearchResponse), args.Error(1)
}

type mockJina struct {
	mock.Mock
}

func (m *mockJina) Search(ctx context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jina.SearchResponse), args.Error(1)
}

type mockPerplexity struct {
	mock.Mock
}

func (m *mockPerplexity) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Research(ctx context.Context, company, queryTemplate string) (model.Research, error) {
	args := m.Called(ctx, company, queryTemplate)
	return args.Get(0).(model.Research), args.Error(1)
}
