// Package llm extracts structured profiles and scores leads with an
// Anthropic model.
package llm

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// cleanJSON strips markdown code fences and surrounding prose, returning the
// outermost JSON object or array in text.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	openCh, closeCh := "{", "}"
	obj := strings.Index(text, "{")
	arr := strings.Index(text, "[")
	if arr >= 0 && (obj < 0 || arr < obj) {
		openCh, closeCh = "[", "]"
	}
	start := strings.Index(text, openCh)
	end := strings.LastIndex(text, closeCh)
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// decodeFirst decodes a JSON object into v. A JSON array decodes its first
// element; an empty array or null reports found=false.
func decodeFirst(text string, v any) (found bool, err error) {
	raw := []byte(cleanJSON(text))
	if len(raw) == 0 {
		return false, eris.New("llm: empty response")
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return false, eris.Wrap(err, "llm: decode array")
		}
		if len(items) == 0 {
			return false, nil
		}
		raw = items[0]
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, eris.Wrap(err, "llm: decode object")
	}
	return true, nil
}
