package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/secrets"
)

// Store drivers.
const (
	DriverSheets   = "sheets"
	DriverXLSX     = "xlsx"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Research providers.
const (
	ProviderSerper     = "serper"
	ProviderJina       = "jina"
	ProviderPerplexity = "perplexity"
)

// Notification channels.
const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	ChannelNotion  = "notion"
)

// Command modes accepted by Validate.
const (
	ModeScrape   = "scrape"
	ModeResearch = "research"
	ModeFull     = "full"
	ModeStatus   = "status"
	ModeInit     = "init"
	ModeNotify   = "notify"
)

// Validate checks the keys mode needs and reports every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, key+" is required")
		}
	}

	switch mode {
	case ModeScrape, ModeResearch, ModeFull, ModeStatus, ModeInit:
		problems = append(problems, c.storeProblems()...)
	case ModeNotify:
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == ModeScrape || mode == ModeFull {
		require("anthropic.key", c.Anthropic.Key)
		switch c.Listing.Source {
		case "http":
		case "file":
			require("listing.file", c.Listing.File)
		default:
			problems = append(problems, fmt.Sprintf("listing.source %q must be http or file", c.Listing.Source))
		}
		if c.Pipeline.MaxLeads < 0 {
			problems = append(problems, "pipeline.max_leads must be >= 0")
		}
	}

	if mode == ModeResearch || mode == ModeFull {
		require("anthropic.key", c.Anthropic.Key)
		if len(c.Research.Providers) == 0 {
			problems = append(problems, "research.providers must name at least one provider")
		}
		for _, p := range c.Research.Providers {
			switch p {
			case ProviderSerper:
				require("serper.key", c.Serper.Key)
			case ProviderJina:
				require("jina.key", c.Jina.Key)
			case ProviderPerplexity:
				require("perplexity.key", c.Perplexity.Key)
			default:
				problems = append(problems, fmt.Sprintf("research.providers: unknown provider %q", p))
			}
		}
		r, q := c.Pipeline.ReviewThreshold, c.Pipeline.QualifiedThreshold
		if r < 0 || q > 100 || r > q {
			problems = append(problems, "pipeline thresholds must satisfy 0 <= review_threshold <= qualified_threshold <= 100")
		}
	}

	if mode == ModeFull || mode == ModeResearch || mode == ModeNotify {
		problems = append(problems, c.channelProblems()...)
	}
	if mode == ModeNotify && len(c.Notify.Channels) == 0 {
		problems = append(problems, "notify.channels must name at least one channel")
	}

	problems = unique(problems)
	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// unique drops repeats, since full mode demands some keys twice.
func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) storeProblems() []string {
	var p []string
	switch c.Store.Driver {
	case DriverSheets:
		if c.Store.SpreadsheetID == "" {
			p = append(p, "store.spreadsheet_id is required")
		}
	case DriverXLSX, DriverSQLite:
		if c.Store.Path == "" {
			p = append(p, "store.path is required")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			p = append(p, "store.database_url is required")
		}
	default:
		p = append(p, fmt.Sprintf("store.driver %q must be one of sheets, xlsx, sqlite, postgres", c.Store.Driver))
	}
	return p
}

func (c *Config) channelProblems() []string {
	var p []string
	for _, ch := range c.Notify.Channels {
		switch ch {
		case ChannelEmail:
			if c.SMTP.Host == "" {
				p = append(p, "smtp.host is required")
			}
			if c.SMTP.From == "" {
				p = append(p, "smtp.from is required")
			}
			if len(c.SMTP.To) == 0 {
				p = append(p, "smtp.to is required")
			}
		case ChannelWebhook:
			if c.Webhook.URL == "" {
				p = append(p, "webhook.url is required")
			}
		case ChannelNotion:
			if c.Notion.Token == "" {
				p = append(p, "notion.token is required")
			}
			if c.Notion.DigestDB == "" {
				p = append(p, "notion.digest_db is required")
			}
		default:
			p = append(p, fmt.Sprintf("notify.channels: unknown channel %q", ch))
		}
	}
	return p
}

// ResolveSecrets fills empty credentials from the OS keyring.
func (c *Config) ResolveSecrets() error {
	return secrets.Fill(map[string]*string{
		secrets.AnthropicKey:  &c.Anthropic.Key,
		secrets.SerperKey:     &c.Serper.Key,
		secrets.JinaKey:       &c.Jina.Key,
		secrets.PerplexityKey: &c.Perplexity.Key,
		secrets.NotionToken:   &c.Notion.Token,
		secrets.SMTPPassword:  &c.SMTP.Password,
		secrets.ListingCookie: &c.Listing.Cookie,
	})
}
