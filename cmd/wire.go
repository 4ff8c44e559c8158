package main

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/config"
	"github.com/fsotosa-ops/meridian-bdr/internal/leads"
	"github.com/fsotosa-ops/meridian-bdr/internal/listing"
	"github.com/fsotosa-ops/meridian-bdr/internal/llm"
	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/notify"
	"github.com/fsotosa-ops/meridian-bdr/internal/pipeline"
	"github.com/fsotosa-ops/meridian-bdr/internal/research"
	"github.com/fsotosa-ops/meridian-bdr/internal/runlock"
	"github.com/fsotosa-ops/meridian-bdr/internal/sheet"
	anthropicpkg "github.com/fsotosa-ops/meridian-bdr/pkg/anthropic"
	"github.com/fsotosa-ops/meridian-bdr/pkg/jina"
	"github.com/fsotosa-ops/meridian-bdr/pkg/notion"
	"github.com/fsotosa-ops/meridian-bdr/pkg/perplexity"
	"github.com/fsotosa-ops/meridian-bdr/pkg/serper"
	"github.com/fsotosa-ops/meridian-bdr/pkg/sheets"
)

// openTable opens the lead store selected by store.driver.
func openTable(ctx context.Context, c *config.Config) (sheet.Table, error) {
	switch c.Store.Driver {
	case config.DriverSheets:
		opts := []sheets.Option{sheets.WithRateLimit(c.Store.RateLimit), sheets.WithRetry(c.Retry())}
		if c.Store.CredentialsFile != "" {
			opts = append(opts, sheets.WithCredentialsFile(c.Store.CredentialsFile))
		}
		return sheets.NewClient(ctx, c.Store.SpreadsheetID, opts...)
	case config.DriverXLSX:
		return sheet.OpenXLSX(c.Store.Path)
	case config.DriverSQLite:
		return sheet.OpenSQLite(ctx, c.Store.Path)
	case config.DriverPostgres:
		return sheet.OpenPostgres(ctx, c.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// settingsDefaults fills Config tab gaps from the config file. A file
// listing has no URL, so it gets a file:// one to satisfy the URL check.
func settingsDefaults(c *config.Config) model.Settings {
	d := c.SettingsDefaults()
	if c.Listing.Source == "file" && d.ListingURL == "" {
		d.ListingURL = (&url.URL{Scheme: "file", Path: c.Listing.File}).String()
	}
	return d
}

// sheetURL is the link put in digests.
func sheetURL(c *config.Config) string {
	if c.Notify.SheetURL != "" {
		return c.Notify.SheetURL
	}
	if c.Store.Driver == config.DriverSheets && c.Store.SpreadsheetID != "" {
		return sheets.URL(c.Store.SpreadsheetID)
	}
	return ""
}

func newListing(c *config.Config) pipeline.ListingSource {
	if c.Listing.Source == "file" {
		return listing.NewFileSource(c.Listing.File)
	}
	opts := []listing.Option{
		listing.WithPageDelay(c.PagePacer()),
		listing.WithRetry(c.Retry()),
		listing.WithCookie(c.Listing.Cookie),
	}
	if c.Listing.UserAgent != "" {
		opts = append(opts, listing.WithUserAgent(c.Listing.UserAgent))
	}
	if c.Listing.ProfileBase != "" {
		opts = append(opts, listing.WithProfileBase(c.Listing.ProfileBase))
	}
	return listing.NewHTTPSource(opts...)
}

func newAnthropic(c *config.Config) anthropicpkg.Client {
	opts := []anthropicpkg.Option{anthropicpkg.WithMaxRetries(c.Anthropic.MaxRetries)}
	if c.Anthropic.BaseURL != "" {
		opts = append(opts, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL))
	}
	return anthropicpkg.NewClient(c.Anthropic.Key, opts...)
}

// newResearcher chains the configured providers in order.
func newResearcher(c *config.Config) (*research.Chain, error) {
	var providers []research.Named
	for _, name := range c.Research.Providers {
		var p research.Provider
		switch name {
		case config.ProviderSerper:
			p = research.NewSerper(serper.NewClient(c.Serper.Key,
				serper.WithBaseURL(c.Serper.BaseURL),
				serper.WithLocale(c.Serper.Country, c.Serper.Lang),
				serper.WithNum(c.Serper.Num),
				serper.WithRetry(c.Retry()),
			))
		case config.ProviderJina:
			p = research.NewJina(jina.NewClient(c.Jina.Key,
				jina.WithBaseURL(c.Jina.BaseURL),
				jina.WithRetry(c.Retry()),
			))
		case config.ProviderPerplexity:
			p = research.NewPerplexity(perplexity.NewClient(c.Perplexity.Key,
				perplexity.WithBaseURL(c.Perplexity.BaseURL),
				perplexity.WithModel(c.Perplexity.Model),
				perplexity.WithRetry(c.Retry()),
			))
		default:
			return nil, eris.Errorf("unknown research provider: %s", name)
		}
		providers = append(providers, research.Named{Name: name, Provider: p})
	}
	return research.NewChain(providers...)
}

// newNotifier returns nil when no channel is configured.
func newNotifier(c *config.Config) (pipeline.Notifier, error) {
	var channels []notify.Named
	for _, ch := range c.Notify.Channels {
		var n notify.Notifier
		switch ch {
		case config.ChannelEmail:
			n = notify.NewEmail(notify.SMTPConfig{
				Host:     c.SMTP.Host,
				Port:     c.SMTP.Port,
				Username: c.SMTP.Username,
				Password: c.SMTP.Password,
				From:     c.SMTP.From,
				To:       c.SMTP.To,
			})
		case config.ChannelWebhook:
			n = notify.NewWebhook(c.Webhook.URL, notify.WithWebhookRetry(c.Retry()))
		case config.ChannelNotion:
			n = notify.NewNotion(notion.NewClient(c.Notion.Token), c.Notion.DigestDB)
		default:
			return nil, eris.Errorf("unknown notify channel: %s", ch)
		}
		channels = append(channels, notify.Named{Channel: ch, Notifier: n})
	}
	m := notify.NewMulti(channels...)
	if m == nil {
		return nil, nil
	}
	return m, nil
}

// session is an open store plus the run lock, released together.
type session struct {
	table  sheet.Table
	repo   *leads.Repository
	runner *pipeline.Runner
	lock   *runlock.Lock
}

func (s *session) Close() {
	if err := s.table.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
	if err := s.lock.Release(); err != nil {
		zap.L().Warn("release run lock", zap.Error(err))
	}
}

// openSession validates the config for mode, takes the run lock when the
// mode writes, opens the store and builds a runner with the adapters mode
// needs.
func openSession(ctx context.Context, c *config.Config, mode string) (*session, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	s := &session{}
	if mode != config.ModeStatus {
		lock, err := runlock.Acquire(c.Run.LockPath)
		if err != nil {
			return nil, err
		}
		s.lock = lock
	}

	table, err := openTable(ctx, c)
	if err != nil {
		_ = s.lock.Release()
		return nil, eris.Wrap(err, "open store")
	}
	s.table = table
	s.repo = leads.NewRepository(table, settingsDefaults(c))

	opts := []pipeline.Option{
		pipeline.WithPolicy(pipeline.RoutePolicy{
			Qualified: c.Pipeline.QualifiedThreshold,
			Review:    c.Pipeline.ReviewThreshold,
		}),
		pipeline.WithLeadPacer(c.LeadPacer()),
		pipeline.WithSource(c.Pipeline.Source),
		pipeline.WithTopN(c.Pipeline.TopN),
		pipeline.WithSheetURL(sheetURL(c)),
	}

	scrape := mode == config.ModeScrape || mode == config.ModeFull
	evaluate := mode == config.ModeResearch || mode == config.ModeFull
	if scrape || evaluate {
		client := newAnthropic(c)
		if scrape {
			opts = append(opts,
				pipeline.WithListing(newListing(c)),
				pipeline.WithExtractor(llm.NewExtractor(client, llm.Options{
					Model:     c.Anthropic.ExtractModel,
					MaxTokens: int64(c.Anthropic.ExtractMaxTokens),
				})),
			)
		}
		if evaluate {
			researcher, err := newResearcher(c)
			if err != nil {
				s.Close()
				return nil, err
			}
			opts = append(opts,
				pipeline.WithResearcher(researcher),
				pipeline.WithEvaluator(llm.NewEvaluator(client, llm.Options{
					Model:     c.Anthropic.EvaluateModel,
					MaxTokens: int64(c.Anthropic.EvaluateMaxTokens),
				})),
			)
		}
	}
	if evaluate {
		n, err := newNotifier(c)
		if err != nil {
			s.Close()
			return nil, err
		}
		if n != nil {
			opts = append(opts, pipeline.WithNotifier(n))
		}
	}

	s.runner = pipeline.New(s.repo, opts...)
	return s, nil
}
