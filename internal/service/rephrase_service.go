package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"journal-reframer/internal/models"
	"journal-reframer/pkg/llm"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const rephraseSystemInstruction = `You rewrite student reflective journals into a fixed academic structure. You preserve every technical fact of the source and never add new ones. You answer with JSON only.`

// RephraseService asks the model for the six-section rewrite of a journal.
type RephraseService struct {
	generator llm.StructuredGenerator
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewRephraseService(generator llm.StructuredGenerator, validate *validator.Validate, logger *zap.Logger) *RephraseService {
	return &RephraseService{
		generator: generator,
		validate:  validate,
		logger:    logger,
	}
}

type rephraseEnvelope struct {
	RephrasedContent *models.RephrasedContent `json:"rephrasedContent"`
}

func (s *RephraseService) Rephrase(ctx context.Context, text string, creativity float64, humanize bool) (*models.RephrasedContent, error) {
	raw, err := s.generator.GenerateJSON(ctx, llm.Request{
		System:      rephraseSystemInstruction,
		Prompt:      buildRephrasePrompt(text, humanize),
		Temperature: creativity,
		SchemaName:  "rephrased_journal",
		Schema:      rephraseSchema(),
	})
	if errors.Is(err, llm.ErrNoOutput) {
		return nil, ErrNoStructuredContent
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rephrase document: %w", err)
	}

	content, err := decodeRephrased(raw)
	if err != nil {
		s.logger.Warn("Unusable model output", zap.Error(err), zap.Int("length", len(raw)))
		return nil, fmt.Errorf("%w: %v", ErrNoStructuredContent, err)
	}
	if err := s.validate.Struct(content); err != nil {
		s.logger.Warn("Model output failed validation", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNoStructuredContent, err)
	}

	s.logger.Info("Document rephrased",
		zap.Int("source_length", len(text)),
		zap.Int("application_items", len(content.Application)),
		zap.Float64("temperature", creativity),
	)
	return content, nil
}

// decodeRephrased accepts the wrapped object and, from providers that drop the
// wrapper, the bare six-field object.
func decodeRephrased(raw json.RawMessage) (*models.RephrasedContent, error) {
	var env rephraseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.RephrasedContent != nil {
		return env.RephrasedContent, nil
	}

	var bare models.RephrasedContent
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, err
	}
	if bare.Topic == "" && bare.Learning == "" && len(bare.Application) == 0 {
		return nil, errors.New("rephrasedContent missing")
	}
	return &bare, nil
}

func buildRephrasePrompt(text string, humanize bool) string {
	tone := "academic"
	paraphrasing := "Paraphrase it to be original, academic in tone, and preserve meaning."
	if humanize {
		tone = "natural and conversational"
		paraphrasing = "Paraphrase it to be original, using simpler and more human-like words and sentence formations. Make it sound like a person talking naturally."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following journal entry. %s Do not introduce or remove technical facts. Do not use bold formatting in your response.\n\n", paraphrasing)
	b.WriteString("Then, structure the rephrased content into the following JSON sections with specific lengths:\n")
	b.WriteString("- 'topic': A brief topic summary.\n")
	b.WriteString("- 'experience': A concise summary of the student's experience (2-3 lines).\n")
	b.WriteString("- 'feelings': A concise summary of the student's feelings (2-3 lines).\n")
	fmt.Fprintf(&b, "- 'learning': A very expanded and detailed %s elaboration of what the student learned (15-20 lines). "+
		"Provide in-depth analysis, explanations, and examples. CRITICAL: This section MUST be formatted with paragraphs of text separated by newline characters, "+
		"and include 2-3 bullet points (each formatted on a new line with a leading asterisk, like \"* This is a point\") to break down key concepts and make it more readable.\n", tone)
	b.WriteString("- 'application': An array of 4 to 5 strings, where each string is a brief, real-world application of the concepts in a single line. " +
		"For each, provide a specific, industry-related use case (e.g., Healthcare, Finance).\n")
	fmt.Fprintf(&b, "- 'conclusion': A detailed %s conclusion for the journal entry (8-10 lines).\n\n", tone)
	b.WriteString("If the original text doesn't explicitly mention one of these sections, infer it from the context.\n\n")
	b.WriteString("Original Document Content:\n")
	b.WriteString(text)
	return b.String()
}

func rephraseSchema() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	content := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":      str("The main topic of the journal entry."),
			"experience": str("The student's experience. This should be a concise summary of about 2-3 lines."),
			"feelings":   str("The student's feelings about the experience. This should be a concise summary of about 2-3 lines."),
			"learning": str("What the student learned. This must be a very expanded and detailed academic elaboration, approximately 15-20 lines long. " +
				"It should provide in-depth analysis and examples. It MUST include paragraphs interspersed with bullet points (using an asterisk \"*\" for each point) to break down key concepts."),
			"application": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "A list of 4-5 brief, real-world applications of what the student learned. Each item should be a single line.",
			},
			"conclusion": str("The conclusion of the journal entry. This should be a detailed academic elaboration of about 8-10 lines."),
		},
		"required":             []string{"topic", "experience", "feelings", "learning", "application", "conclusion"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"rephrasedContent": content},
		"required":             []string{"rephrasedContent"},
		"additionalProperties": false,
	}
}
