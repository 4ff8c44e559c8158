package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

func TestRoute_Boundaries(t *testing.T) {
	p := DefaultRoutePolicy()
	tests := []struct {
		score int
		want  model.Status
	}{
		{100, model.StatusQualified},
		{70, model.StatusQualified},
		{69, model.StatusUnderReview},
		{40, model.StatusUnderReview},
		{39, model.StatusDiscarded},
		{0, model.StatusDiscarded},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Route(tt.score), "score %d", tt.score)
	}
}

func TestRoutePolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultRoutePolicy().Validate())
	assert.NoError(t, RoutePolicy{Qualified: 50, Review: 50}.Validate())
	assert.Error(t, RoutePolicy{Qualified: 40, Review: 70}.Validate())
	assert.Error(t, RoutePolicy{Qualified: 101, Review: 40}.Validate())
	assert.Error(t, RoutePolicy{Qualified: 70, Review: -1}.Validate())
}
