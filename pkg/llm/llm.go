// Package llm wraps chat-completion providers behind a schema-constrained
// JSON generation call.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoOutput means the provider answered without a usable JSON object.
var ErrNoOutput = errors.New("llm: model returned no structured output")

// Request is one structured generation. Schema is a JSON Schema object the
// reply must conform to; SchemaName labels it for providers that need one.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	SchemaName  string
	Schema      map[string]any
}

type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)
	Close() error
}

// ExtractJSONObject pulls the outermost JSON object out of a model reply that
// may be wrapped in markdown fences or prose.
func ExtractJSONObject(content string) (json.RawMessage, bool) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	candidate := content[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

func clampTemperature(t, min, max float64) float64 {
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}
