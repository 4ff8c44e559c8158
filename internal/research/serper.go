package research

import (
	"context"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/serper"
)

// organicPerQuery is how many organic hits each query contributes.
const organicPerQuery = 3

// Serper researches companies through Google results from Serper.dev.
type Serper struct {
	client serper.Client
}

// NewSerper creates a Serper researcher.
func NewSerper(client serper.Client) *Serper {
	return &Serper{client: client}
}

// Research runs each query and keeps the top organic hits plus the
// knowledge graph entry.
func (s *Serper) Research(ctx context.Context, company, queryTemplate string) (model.Research, error) {
	return gather(ctx, "serper", company, queryTemplate, func(ctx context.Context, q string) (finding, error) {
		resp, err := s.client.Search(ctx, serper.SearchRequest{Query: q})
		if err != nil {
			return finding{}, err
		}
		var f finding
		for i, r := range resp.Organic {
			if i == organicPerQuery {
				break
			}
			if p := pair(r.Title, r.Snippet); p != "" {
				f.snippets = append(f.snippets, p)
				f.urls = append(f.urls, r.Link)
			}
		}
		if kg := resp.KnowledgeGraph; kg != nil {
			if p := pair(kg.Title, kg.Description); p != "" {
				f.snippets = append(f.snippets, "[Info] "+p)
			}
		}
		return f, nil
	})
}
