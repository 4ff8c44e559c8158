package research

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// Provider is one researcher in a Chain.
type Provider interface {
	Research(ctx context.Context, company, queryTemplate string) (model.Research, error)
}

// Named pairs a provider with the name used in logs.
type Named struct {
	Name     string
	Provider Provider
}

// Chain tries providers in order and returns the first result with
// findings. If none has findings, it returns NoResults when at least one
// provider answered, otherwise the last error.
type Chain struct {
	providers []Named
}

// NewChain creates a Chain. It needs at least one provider.
func NewChain(providers ...Named) (*Chain, error) {
	if len(providers) == 0 {
		return nil, eris.New("research: no providers configured")
	}
	return &Chain{providers: providers}, nil
}

// Research implements pipeline.Researcher.
func (c *Chain) Research(ctx context.Context, company, queryTemplate string) (model.Research, error) {
	var (
		lastErr  error
		answered bool
	)
	for _, p := range c.providers {
		res, err := p.Provider.Research(ctx, company, queryTemplate)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			zap.L().Warn("research: provider failed, trying next",
				zap.String("provider", p.Name),
				zap.String("company", company),
				zap.Error(err),
			)
			continue
		}
		answered = true
		if res.Summary != NoResults {
			return res, nil
		}
	}
	if answered {
		return model.Research{Summary: NoResults}, nil
	}
	return model.Research{}, lastErr
}
