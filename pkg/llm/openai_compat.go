package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAICompat calls an OpenAI-compatible /chat/completions endpoint with a
// strict json_schema response format.
type OpenAICompat struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAICompat builds the provider. baseURL includes the /v1 prefix.
func NewOpenAICompat(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *OpenAICompat {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAICompat{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("openai"),
	}
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type oaiResponseFormat struct {
	Type       string         `json:"type"`
	JSONSchema *oaiJSONSchema `json:"json_schema,omitempty"`
}

type oaiChatRequest struct {
	Model          string             `json:"model"`
	Messages       []oaiMessage       `json:"messages"`
	Temperature    float64            `json:"temperature"`
	ResponseFormat *oaiResponseFormat `json:"response_format,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (g *OpenAICompat) GenerateJSON(ctx context.Context, r Request) (json.RawMessage, error) {
	if g.model == "" {
		return nil, fmt.Errorf("openai-compat generation model required")
	}

	messages := make([]oaiMessage, 0, 2)
	if strings.TrimSpace(r.System) != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: r.System})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: r.Prompt})

	reqBody := oaiChatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: clampTemperature(r.Temperature, 0, 2),
	}
	if len(r.Schema) > 0 {
		name := r.SchemaName
		if name == "" {
			name = "response"
		}
		reqBody.ResponseFormat = &oaiResponseFormat{
			Type:       "json_schema",
			JSONSchema: &oaiJSONSchema{Name: name, Schema: r.Schema, Strict: true},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai-compat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("openai-compat api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("openai-compat api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("openai-compat decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, ErrNoOutput
	}
	msg := chatResp.Choices[0].Message
	if msg.Refusal != "" {
		g.logger.Warn("Model refused structured output", zap.String("refusal", msg.Refusal))
		return nil, ErrNoOutput
	}
	raw, ok := ExtractJSONObject(msg.Content)
	if !ok {
		return nil, ErrNoOutput
	}
	return raw, nil
}

func (g *OpenAICompat) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}
