package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/anthropic"
)

// ErrNoProfile is returned when the model output holds no usable profile.
var ErrNoProfile = errors.New("llm: no profile in model output")

const extractSystem = `You extract contact details from a sales prospecting list entry.
Respond ONLY with valid JSON and no other text, in the form:
{"name": "Full Name", "role": "Job title", "company": "Company name"}
Use null for any field you cannot find. Do not translate names.`

// Options configures the model calls shared by Extractor and Evaluator.
type Options struct {
	Model     string
	MaxTokens int64
}

func (o Options) withDefaults(maxTokens int64) Options {
	if o.Model == "" {
		o.Model = "claude-haiku-4-5"
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = maxTokens
	}
	return o
}

// Extractor turns scraped listing text into a Profile.
type Extractor struct {
	client anthropic.Client
	opts   Options
}

// NewExtractor creates an Extractor.
func NewExtractor(client anthropic.Client, opts Options) *Extractor {
	return &Extractor{client: client, opts: opts.withDefaults(256)}
}

type profileJSON struct {
	Name    *string `json:"name"`
	Role    *string `json:"role"`
	Company *string `json:"company"`
}

// Extract returns the profile found in rawText. Missing fields come back
// empty; the caller decides whether the profile is complete.
func (e *Extractor) Extract(ctx context.Context, rawText string) (model.Profile, error) {
	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
		System: []anthropic.SystemBlock{
			{Text: extractSystem, CacheControl: &anthropic.CacheControl{}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("PROFILE:\n%s", rawText)},
		},
		Temperature: &temp,
	})
	if err != nil {
		return model.Profile{}, eris.Wrap(err, "llm: extract")
	}
	resp.Usage.LogCost(e.opts.Model, "extract")

	var p profileJSON
	found, err := decodeFirst(resp.Text(), &p)
	if err != nil {
		return model.Profile{}, eris.Wrapf(ErrNoProfile, "%v", err)
	}
	if !found {
		return model.Profile{}, ErrNoProfile
	}
	return model.Profile{
		Name:    deref(p.Name),
		Role:    deref(p.Role),
		Company: deref(p.Company),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") {
		return ""
	}
	return v
}
