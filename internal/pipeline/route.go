package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// RoutePolicy holds the score thresholds. Each threshold is the inclusive
// lower bound of its bucket.
type RoutePolicy struct {
	Qualified int `yaml:"qualified" mapstructure:"qualified"`
	Review    int `yaml:"review" mapstructure:"review"`
}

// DefaultRoutePolicy returns the 70/40 policy.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{Qualified: 70, Review: 40}
}

// Validate checks 0 <= Review <= Qualified <= 100.
func (p RoutePolicy) Validate() error {
	if p.Review < 0 || p.Qualified > 100 || p.Review > p.Qualified {
		return eris.Errorf("pipeline: invalid thresholds review=%d qualified=%d", p.Review, p.Qualified)
	}
	return nil
}

// Route maps a score to the lead's post-evaluation status.
func (p RoutePolicy) Route(score int) model.Status {
	switch {
	case score >= p.Qualified:
		return model.StatusQualified
	case score >= p.Review:
		return model.StatusUnderReview
	default:
		return model.StatusDiscarded
	}
}
