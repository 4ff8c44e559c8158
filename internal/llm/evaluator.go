package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fsotosa-ops/meridian-bdr/internal/leads"
	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/anthropic"
)

// MaxReasonRunes bounds the reason returned by Evaluate.
const MaxReasonRunes = 300

// DegradedReason is the reason recorded when model output cannot be parsed.
const DegradedReason = "evaluation output could not be parsed"

const evaluateSystem = `You are a senior B2B business development representative qualifying leads.

Decide whether the prospect matches the Ideal Customer Profile (ICP) below. Pay attention to:
- whether the company imports goods
- import volume, when the research shows it
- the industry and products the company handles
- whether the contact's role makes purchasing decisions

Score from 0 to 100:
- 80-100: excellent match, contact first
- 60-79: good match, worth exploring
- 40-59: partial match, review carefully
- 0-39: does not meet the main criteria

Respond ONLY with valid JSON:
{"fit": true or false, "score": 0-100, "reason": "short explanation"}

ICP:
%s`

// Evaluator scores a profile against the ICP.
type Evaluator struct {
	client anthropic.Client
	opts   Options
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(client anthropic.Client, opts Options) *Evaluator {
	return &Evaluator{client: client, opts: opts.withDefaults(512)}
}

type evaluationJSON struct {
	Fit    flexBool   `json:"fit"`
	Score  flexNumber `json:"score"`
	Reason string     `json:"reason"`
}

// Evaluate calls the model once. Transport errors are returned; output that
// does not parse comes back as a degraded evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, profileText, icp string) (model.Evaluation, error) {
	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
		System: []anthropic.SystemBlock{
			{Text: fmt.Sprintf(evaluateSystem, icp), CacheControl: &anthropic.CacheControl{}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf("PROSPECT:\n%s", profileText)},
		},
		Temperature: &temp,
	})
	if err != nil {
		return model.Evaluation{}, eris.Wrap(err, "llm: evaluate")
	}
	resp.Usage.LogCost(e.opts.Model, "evaluate")

	var out evaluationJSON
	found, err := decodeFirst(resp.Text(), &out)
	if err != nil || !found {
		zap.L().Warn("llm: unusable evaluation output", zap.Error(err), zap.String("stop_reason", resp.StopReason))
		return Degraded(), nil
	}
	return model.Evaluation{
		Score:  int(out.Score),
		Fit:    bool(out.Fit),
		Reason: leads.Truncate(strings.TrimSpace(out.Reason), MaxReasonRunes),
	}, nil
}

// Degraded is the verdict used when the model output is unusable.
func Degraded() model.Evaluation {
	return model.Evaluation{Score: 0, Fit: false, Reason: DegradedReason, Degraded: true}
}

// flexBool accepts JSON booleans and their common string spellings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "sí", "si":
			*b = true
		default:
			*b = false
		}
	case float64:
		*b = t != 0
	default:
		*b = false
	}
	return nil
}

// flexNumber accepts integers, floats and numeric strings, rounding to
// the nearest integer.
type flexNumber int

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*n = flexNumber(math.Round(t))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return eris.Wrapf(err, "llm: score %q", t)
		}
		*n = flexNumber(math.Round(f))
	case nil:
		*n = 0
	default:
		return eris.Errorf("llm: score has type %T", v)
	}
	return nil
}
