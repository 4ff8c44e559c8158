// Package notify delivers the run digest by email, webhook and Notion.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

// Notifier delivers a digest. It matches pipeline.Notifier.
type Notifier interface {
	Notify(ctx context.Context, digest model.Digest) error
}

// Named pairs a notifier with the channel name used in logs.
type Named struct {
	Channel  string
	Notifier Notifier
}

// Multi fans a digest out to every channel. One failing channel does not
// stop the others; the failures are joined into the returned error.
type Multi struct {
	channels []Named
}

// NewMulti returns nil when no channel is configured, so callers can treat
// notification as disabled.
func NewMulti(channels ...Named) *Multi {
	if len(channels) == 0 {
		return nil
	}
	return &Multi{channels: channels}
}

// Channels lists the configured channel names.
func (m *Multi) Channels() []string {
	names := make([]string, len(m.channels))
	for i, c := range m.channels {
		names[i] = c.Channel
	}
	return names
}

// Notify implements Notifier. Channels are delivered one at a time in
// configuration order.
func (m *Multi) Notify(ctx context.Context, digest model.Digest) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Notifier.Notify(ctx, digest); err != nil {
			zap.L().Warn("notify: channel failed", zap.String("channel", c.Channel), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.Channel, err))
			continue
		}
		zap.L().Debug("notify: channel delivered", zap.String("channel", c.Channel))
	}
	return errors.Join(errs...)
}

// Subject is the headline shared by every channel.
func Subject(d model.Digest) string {
	return fmt.Sprintf("Meridian BDR: %d qualified of %d evaluated", d.Qualified, d.Total)
}

// Sample is a representative digest for checking channel configuration.
func Sample(at time.Time, sheetURL string) model.Digest {
	return model.Digest{
		Total:     3,
		Qualified: 2,
		Discarded: 1,
		TopLeads: []model.DigestLead{
			{Name: "Ana Torres", Role: "Directora de Compras", Company: "Aceros del Norte", Score: 88, Reason: "Imports steel coil monthly from Asia."},
			{Name: "Luis Méndez", Role: "Gerente de Logística", Company: "Textiles Bajío", Score: 74, Reason: "Growing import volume through Manzanillo."},
		},
		SheetURL:  sheetURL,
		CreatedAt: at,
	}
}
