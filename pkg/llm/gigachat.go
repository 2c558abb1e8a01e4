package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"journal-reframer/pkg/memo"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

// GigaChat has no native schema mode, so the schema travels in the system
// instruction and the JSON object is cut out of the reply.
type GigaChat struct {
	client *gigago.Client
	models *memo.Map[modelKey, *gigago.GenerativeModel]
	logger *zap.Logger
}

type modelKey struct {
	system      string
	temperature float64
}

func NewGigaChat(ctx context.Context, cfg GigaChatConfig, logger *zap.Logger) (*GigaChat, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "GigaChat"
	}

	g := &GigaChat{
		client: client,
		models: newModelCache(func() *gigago.GenerativeModel { return client.GenerativeModel(modelName) }),
		logger: logger.Named("gigachat"),
	}

	g.logger.Info("Using GigaChat model", zap.String("model", modelName))
	return g, nil
}

// newModelCache keeps one configured handle per modelKey. Keys come from
// modelKeyFor, which bounds how many distinct temperatures can appear.
func newModelCache(newModel func() *gigago.GenerativeModel) *memo.Map[modelKey, *gigago.GenerativeModel] {
	return memo.New(func(k modelKey) (*gigago.GenerativeModel, error) {
		model := newModel()
		model.SystemInstruction = k.system
		setTemperature(&model.Temperature, k.temperature)
		return model, nil
	})
}

// modelKeyFor clamps the temperature into the range GigaChat accepts (it
// rejects zero) and rounds it to two decimals.
func modelKeyFor(system string, temperature float64) modelKey {
	t := math.Round(clampTemperature(temperature, 0.01, 2)*100) / 100
	return modelKey{system: system, temperature: t}
}

func setTemperature[T ~float32 | ~float64](dst *T, v float64) {
	*dst = T(v)
}

func (g *GigaChat) GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	system, err := withSchemaInstruction(req.System, req.Schema)
	if err != nil {
		return nil, err
	}
	model, err := g.models.Get(modelKeyFor(system, req.Temperature))
	if err != nil {
		return nil, err
	}

	resp, err := model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: req.Prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoOutput
	}

	content := resp.Choices[0].Message.Content
	raw, ok := ExtractJSONObject(content)
	if !ok {
		g.logger.Warn("Reply held no JSON object", zap.Int("length", len(content)))
		return nil, ErrNoOutput
	}
	return raw, nil
}

func withSchemaInstruction(system string, schema map[string]any) (string, error) {
	if len(schema) == 0 {
		return system, nil
	}
	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}
	var b strings.Builder
	if system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with ONLY a JSON object, without markdown or commentary, that conforms to this JSON Schema:\n")
	b.Write(encoded)
	return b.String(), nil
}

func (g *GigaChat) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}
