package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Listing    ListingConfig    `yaml:"listing" mapstructure:"listing"`
	Research   ResearchConfig   `yaml:"research" mapstructure:"research"`
	Serper     SerperConfig     `yaml:"serper" mapstructure:"serper"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Notify     NotifyConfig     `yaml:"notify" mapstructure:"notify"`
	SMTP       SMTPConfig       `yaml:"smtp" mapstructure:"smtp"`
	Webhook    WebhookConfig    `yaml:"webhook" mapstructure:"webhook"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Run        RunConfig        `yaml:"run" mapstructure:"run"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and locates the lead store.
type StoreConfig struct {
	Driver          string  `yaml:"driver" mapstructure:"driver"`
	SpreadsheetID   string  `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	CredentialsFile string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Path            string  `yaml:"path" mapstructure:"path"`
	DatabaseURL     string  `yaml:"database_url" mapstructure:"database_url"`
}

// ListingConfig configures where candidates come from.
type ListingConfig struct {
	Source           string `yaml:"source" mapstructure:"source"`
	URL              string `yaml:"url" mapstructure:"url"`
	File             string `yaml:"file" mapstructure:"file"`
	Cookie           string `yaml:"cookie" mapstructure:"cookie"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	ProfileBase      string `yaml:"profile_base" mapstructure:"profile_base"`
	MaxPages         int    `yaml:"max_pages" mapstructure:"max_pages"`
	PageDelayMinSecs int    `yaml:"page_delay_min_secs" mapstructure:"page_delay_min_secs"`
	PageDelayMaxSecs int    `yaml:"page_delay_max_secs" mapstructure:"page_delay_max_secs"`
}

// ResearchConfig picks the enrichment providers, tried in order.
type ResearchConfig struct {
	Providers     []string `yaml:"providers" mapstructure:"providers"`
	QueryTemplate string   `yaml:"query_template" mapstructure:"query_template"`
}

// SerperConfig holds Serper.dev settings.
type SerperConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Country string `yaml:"country" mapstructure:"country"`
	Lang    string `yaml:"lang" mapstructure:"lang"`
	Num     int    `yaml:"num" mapstructure:"num"`
}

// JinaConfig holds Jina AI Search settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	ExtractModel      string `yaml:"extract_model" mapstructure:"extract_model"`
	EvaluateModel     string `yaml:"evaluate_model" mapstructure:"evaluate_model"`
	ExtractMaxTokens  int    `yaml:"extract_max_tokens" mapstructure:"extract_max_tokens"`
	EvaluateMaxTokens int    `yaml:"evaluate_max_tokens" mapstructure:"evaluate_max_tokens"`
	MaxRetries        int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// PipelineConfig configures the lead lifecycle.
type PipelineConfig struct {
	ICP                string `yaml:"icp" mapstructure:"icp"`
	Source             string `yaml:"source" mapstructure:"source"`
	MaxLeads           int    `yaml:"max_leads" mapstructure:"max_leads"`
	QualifiedThreshold int    `yaml:"qualified_threshold" mapstructure:"qualified_threshold"`
	ReviewThreshold    int    `yaml:"review_threshold" mapstructure:"review_threshold"`
	LeadDelayMinMs     int    `yaml:"lead_delay_min_ms" mapstructure:"lead_delay_min_ms"`
	LeadDelayMaxMs     int    `yaml:"lead_delay_max_ms" mapstructure:"lead_delay_max_ms"`
	TopN               int    `yaml:"top_n" mapstructure:"top_n"`
}

// NotifyConfig lists the digest channels and the link they carry.
type NotifyConfig struct {
	Channels []string `yaml:"channels" mapstructure:"channels"`
	SheetURL string   `yaml:"sheet_url" mapstructure:"sheet_url"`
}

// SMTPConfig holds the digest mail server settings.
type SMTPConfig struct {
	Host     string   `yaml:"host" mapstructure:"host"`
	Port     int      `yaml:"port" mapstructure:"port"`
	Username string   `yaml:"username" mapstructure:"username"`
	Password string   `yaml:"password" mapstructure:"password"`
	From     string   `yaml:"from" mapstructure:"from"`
	To       []string `yaml:"to" mapstructure:"to"`
}

// WebhookConfig holds the digest webhook target.
type WebhookConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// NotionConfig holds the Notion token and digest database.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	DigestDB string `yaml:"digest_db" mapstructure:"digest_db"`
}

// RunConfig holds process-level run settings.
type RunConfig struct {
	LockPath         string `yaml:"lock_path" mapstructure:"lock_path"`
	RetryAttempts    int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffSecs int    `yaml:"retry_backoff_secs" mapstructure:"retry_backoff_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MERIDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvs(v, reflect.TypeOf(Config{}), ""); err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("store.driver", "sheets")
	v.SetDefault("store.rate_limit", 1.0)
	v.SetDefault("listing.source", "http")
	v.SetDefault("listing.profile_base", "https://www.linkedin.com")
	v.SetDefault("listing.max_pages", 3)
	v.SetDefault("listing.page_delay_min_secs", 8)
	v.SetDefault("listing.page_delay_max_secs", 15)
	v.SetDefault("research.providers", []string{"serper"})
	v.SetDefault("research.query_template", "{company} importador México")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.country", "mx")
	v.SetDefault("serper.lang", "es")
	v.SetDefault("serper.num", 5)
	v.SetDefault("jina.base_url", "https://s.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("anthropic.extract_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.evaluate_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.extract_max_tokens", 256)
	v.SetDefault("anthropic.evaluate_max_tokens", 512)
	v.SetDefault("anthropic.max_retries", 2)
	v.SetDefault("pipeline.source", "listing")
	v.SetDefault("pipeline.max_leads", 50)
	v.SetDefault("pipeline.qualified_threshold", 70)
	v.SetDefault("pipeline.review_threshold", 40)
	v.SetDefault("pipeline.lead_delay_min_ms", 2000)
	v.SetDefault("pipeline.lead_delay_max_ms", 5000)
	v.SetDefault("pipeline.top_n", 5)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("run.lock_path", ".meridian/run.lock")
	v.SetDefault("run.retry_attempts", 3)
	v.SetDefault("run.retry_backoff_secs", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// bindEnvs registers every mapstructure key of t with v so Unmarshal sees
// MERIDIAN_* variables for keys that have no default.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) error {
	for i := range t.NumField() {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if f.Type.Kind() == reflect.Struct {
			if err := bindEnvs(v, f.Type, key); err != nil {
				return err
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return eris.Wrapf(err, "config: bind env %s", key)
		}
	}
	return nil
}

// SettingsDefaults are the run settings used where the store's Config tab
// leaves a cell empty.
func (c *Config) SettingsDefaults() model.Settings {
	return model.Settings{
		ICP:           c.Pipeline.ICP,
		QueryTemplate: c.Research.QueryTemplate,
		ListingURL:    c.Listing.URL,
		MaxPages:      c.Listing.MaxPages,
		MaxLeads:      c.Pipeline.MaxLeads,
	}
}

// Retry is the retry policy shared by the HTTP adapters.
func (c *Config) Retry() resilience.RetryConfig {
	return resilience.FromSettings(c.Run.RetryAttempts, time.Duration(c.Run.RetryBackoffSecs)*time.Second)
}

// PagePacer is the delay between listing pages.
func (c *Config) PagePacer() resilience.Pacer {
	return resilience.Pacer{
		Min: time.Duration(c.Listing.PageDelayMinSecs) * time.Second,
		Max: time.Duration(c.Listing.PageDelayMaxSecs) * time.Second,
	}
}

// LeadPacer is the delay between evaluated leads.
func (c *Config) LeadPacer() resilience.Pacer {
	return resilience.Pacer{
		Min: time.Duration(c.Pipeline.LeadDelayMinMs) * time.Millisecond,
		Max: time.Duration(c.Pipeline.LeadDelayMaxMs) * time.Millisecond,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
