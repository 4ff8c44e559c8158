package research

import (
	"context"

	"github.com/fsotosa-ops/meridian-bdr/internal/leads"
	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/jina"
)

// Jina researches companies through Jina AI search.
type Jina struct {
	client jina.Client
}

// NewJina creates a Jina researcher.
func NewJina(client jina.Client) *Jina {
	return &Jina{client: client}
}

// Research keeps the top hits of each query, using the description or,
// failing that, the start of the page content.
func (j *Jina) Research(ctx context.Context, company, queryTemplate string) (model.Research, error) {
	return gather(ctx, "jina", company, queryTemplate, func(ctx context.Context, q string) (finding, error) {
		resp, err := j.client.Search(ctx, q)
		if err != nil {
			return finding{}, err
		}
		var f finding
		for i, r := range resp.Data {
			if i == organicPerQuery {
				break
			}
			text := r.Description
			if text == "" {
				text = leads.Truncate(r.Content, 300)
			}
			if p := pair(r.Title, text); p != "" {
				f.snippets = append(f.snippets, p)
				f.urls = append(f.urls, r.URL)
			}
		}
		return f, nil
	})
}
