package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/hustings/canvass/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Analyzer implements ai.Analyzer using OpenAI-compatible chat APIs.
type Analyzer struct {
	client llms.Model
	logger *slog.Logger
}

// newAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnalyzer(config *ai.Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.AnalysisHost),
		openai.WithToken("none"),
		openai.WithModel(config.AnalysisModel),
	)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		client: client,
		logger: slog.Default().With("component", "openai-analyzer"),
	}, nil
}

// NewAnalyzer creates a new analyzer using the provided configuration.
//
// Returns ai.Analyzer interface to enforce abstraction.
func NewAnalyzer(config *ai.Config) (ai.Analyzer, error) {
	return newAnalyzer(config)
}

// Analyze sends the prompts to the model in JSON mode and returns the raw
// JSON object from the response. Markdown code fences are stripped and common
// JSON defects repaired; the payload is checked to be well-formed JSON but
// schema validation is left to the caller.
func (a *Analyzer) Analyze(ctx context.Context, systemPrompt, userPrompt string) ([]byte, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		a.logger.Error("failed to generate content", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		a.logger.Debug("no choices returned from model")
		return nil, ErrEmptyResponse
	}

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	responseText = repairJSON(responseText)

	if !json.Valid([]byte(responseText)) {
		a.logger.Warn("model returned malformed JSON", "response", responseText)
		return nil, ErrMalformedResponse
	}

	return []byte(responseText), nil
}
