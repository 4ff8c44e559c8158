package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacer_DelayWithinBounds(t *testing.T) {
	p := Pacer{Min: 8 * time.Second, Max: 15 * time.Second}
	for range 100 {
		d := p.Delay()
		assert.GreaterOrEqual(t, d, p.Min)
		assert.LessOrEqual(t, d, p.Max)
	}
}

func TestPacer_FixedDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, Pacer{Min: 2 * time.Second}.Delay())
	assert.Zero(t, Pacer{}.Delay())
}

func TestPacer_WaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Pacer{Min: time.Hour, Max: time.Hour}.Wait(ctx), context.Canceled)
	assert.ErrorIs(t, Pacer{}.Wait(ctx), context.Canceled)
}

func TestPacer_ZeroDoesNotWait(t *testing.T) {
	start := time.Now()
	assert.NoError(t, Pacer{}.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
