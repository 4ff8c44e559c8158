// Package research enriches a company with web search results.
package research

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// NoResults is the summary recorded when every query came back empty.
const NoResults = "No information found"

// DefaultQueryTemplate is used when the configured template is blank.
const DefaultQueryTemplate = "{company} importador México"

// Placeholder is replaced by the company name in each query fragment.
const Placeholder = "{company}"

const fragmentSep = " | "

// ErrAllQueriesFailed is returned when no query fragment could be run.
var ErrAllQueriesFailed = errors.New("research: every query failed")

// ExpandQueries splits a comma-separated template into trimmed queries with
// the company substituted. Blank fragments are dropped.
func ExpandQueries(template, company string) []string {
	if strings.TrimSpace(template) == "" {
		template = DefaultQueryTemplate
	}
	var out []string
	for _, frag := range strings.Split(template, ",") {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		out = append(out, strings.ReplaceAll(frag, Placeholder, company))
	}
	return out
}

// finding is what one query fragment contributed.
type finding struct {
	snippets []string
	urls     []string
}

// searchFunc runs a single query.
type searchFunc func(ctx context.Context, query string) (finding, error)

// gather runs every query and merges the results. A failed query is logged
// and skipped; the call fails only when every query failed.
func gather(ctx context.Context, provider, company, template string, search searchFunc) (model.Research, error) {
	queries := ExpandQueries(template, company)
	log := zap.L().With(zap.String("provider", provider), zap.String("company", company))

	var (
		snippets []string
		urls     []string
		seen     = map[string]bool{}
		failed   int
	)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return model.Research{}, eris.Wrap(err, "research: interrupted")
		}
		f, err := search(ctx, q)
		if err != nil {
			failed++
			log.Warn("research: query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		log.Debug("research: query done", zap.String("query", q), zap.Int("snippets", len(f.snippets)))
		snippets = append(snippets, f.snippets...)
		for _, u := range f.urls {
			if u != "" && !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}

	if len(queries) > 0 && failed == len(queries) {
		return model.Research{}, eris.Wrapf(ErrAllQueriesFailed, "%s: %d queries", provider, failed)
	}
	if len(snippets) == 0 {
		return model.Research{Summary: NoResults}, nil
	}
	return model.Research{Summary: strings.Join(snippets, fragmentSep), URLs: urls}, nil
}

func pair(title, text string) string {
	title, text = strings.TrimSpace(title), strings.TrimSpace(text)
	if title == "" || text == "" {
		return ""
	}
	return title + ": " + text
}
