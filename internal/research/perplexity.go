package research

import (
	"context"
	"strings"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/perplexity"
)

const perplexitySystem = "You research companies for a B2B sales team. Answer in at most three sentences " +
	"with concrete facts: what the company sells, whether it imports goods, from where and in what volume. " +
	"If you find nothing reliable, answer exactly: NONE"

// Perplexity researches companies with Perplexity's search-grounded answers.
type Perplexity struct {
	client perplexity.Client
}

// NewPerplexity creates a Perplexity researcher.
func NewPerplexity(client perplexity.Client) *Perplexity {
	return &Perplexity{client: client}
}

// Research asks one question per query and keeps the answer and citations.
func (p *Perplexity) Research(ctx context.Context, company, queryTemplate string) (model.Research, error) {
	return gather(ctx, "perplexity", company, queryTemplate, func(ctx context.Context, q string) (finding, error) {
		temp := 0.0
		resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
			Messages: []perplexity.Message{
				{Role: "system", Content: perplexitySystem},
				{Role: "user", Content: q},
			},
			Temperature: &temp,
		})
		if err != nil {
			return finding{}, err
		}
		answer := strings.TrimSpace(resp.Content())
		if answer == "" || strings.EqualFold(answer, "NONE") {
			return finding{}, nil
		}
		return finding{snippets: []string{answer}, urls: resp.Citations}, nil
	})
}
