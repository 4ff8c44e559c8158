package serper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fastRetry() Option {
	return WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond})
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		raw, _ := io.ReadAll(r.Body)
		var req SearchRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, SearchRequest{Query: "Acme importador México", Country: "mx", Lang: "es", Num: 5}, req)

		_, _ = w.Write([]byte(`{
			"organic": [{"title": "Acme", "link": "https://acme.mx", "snippet": "Importer", "position": 1}],
			"knowledgeGraph": {"title": "Acme SA", "description": "Steel importer"}
		}`))
	}))
	defer srv.Close()

	resp, err := NewClient("test-key", WithBaseURL(srv.URL), fastRetry()).
		Search(context.Background(), SearchRequest{Query: "Acme importador México"})
	require.NoError(t, err)
	require.Len(t, resp.Organic, 1)
	assert.Equal(t, "https://acme.mx", resp.Organic[0].Link)
	require.NotNil(t, resp.KnowledgeGraph)
	assert.Equal(t, "Steel importer", resp.KnowledgeGraph.Description)
}

func TestSearch_LocaleOverrides(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var req SearchRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "us", req.Country)
		assert.Equal(t, "en", req.Lang)
		assert.Equal(t, 3, req.Num)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL), WithLocale("us", "en"), WithNum(3), fastRetry()).
		Search(context.Background(), SearchRequest{Query: "q"})
	require.NoError(t, err)
	assert.Empty(t, resp.Organic)
	assert.Nil(t, resp.KnowledgeGraph)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   string
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad key"}`, "unexpected status 401", 1},
		{"rate limited", http.StatusTooManyRequests, `{}`, "unexpected status 429", 3},
		{"malformed", http.StatusOK, `{nope`, "unmarshal response", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", WithBaseURL(srv.URL), fastRetry()).Search(context.Background(), SearchRequest{Query: "q"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}
