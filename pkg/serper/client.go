// Package serper provides a client for the Serper.dev Google search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

const defaultBaseURL = "https://google.serper.dev"

// Client performs web searches against Serper.dev.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the request body for POST /search. Empty locale fields
// take the client defaults.
type SearchRequest struct {
	Query   string `json:"q"`
	Country string `json:"gl,omitempty"`
	Lang    string `json:"hl,omitempty"`
	Num     int    `json:"num,omitempty"`
}

// SearchResponse is the subset of the Serper response used for enrichment.
type SearchResponse struct {
	Organic        []OrganicResult `json:"organic"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledgeGraph,omitempty"`
}

// OrganicResult is one organic search hit.
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// KnowledgeGraph is the entity panel Google shows for well-known companies.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithLocale sets the default country (gl) and language (hl).
func WithLocale(country, lang string) Option {
	return func(c *httpClient) {
		if country != "" {
			c.country = country
		}
		if lang != "" {
			c.lang = lang
		}
	}
}

// WithNum sets the default number of results requested.
func WithNum(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.num = n
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	country string
	lang    string
	num     int
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a Serper client. Searches default to Mexico, Spanish,
// five results.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		country: "mx",
		lang:    "es",
		num:     5,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.OnRetry = resilience.RetryLogger("serper", "search")
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Country == "" {
		req.Country = c.country
	}
	if req.Lang == "" {
		req.Lang = c.lang
	}
	if req.Num == 0 {
		req.Num = c.num
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	respBody, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "serper: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-KEY", c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "serper: read response")
		}
		if err := resilience.CheckStatus("serper", resp.StatusCode, respBody); err != nil {
			return nil, err
		}
		return respBody, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "serper: search %q", req.Query)
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}
	return &result, nil
}
