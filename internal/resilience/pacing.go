package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer inserts a courtesy pause between calls to rate-limited services.
// The pause is drawn uniformly from [Min, Max]; a zero Pacer never waits.
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// Delay returns the next pause length.
func (p Pacer) Delay() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + rand.N(p.Max-p.Min+1)
}

// Wait sleeps for Delay or until ctx is done.
func (p Pacer) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
