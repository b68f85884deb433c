package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/models"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClassifier scores text with a Google Gemini model via langchaingo
type GeminiClassifier struct {
	llm   *googleai.GoogleAI
	model string
}

// NewGeminiClassifier creates the Gemini-backed classifier. Fails when the
// key is rejected at client construction.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClassifier{llm: llm, model: model}, nil
}

func (c *GeminiClassifier) Name() string { return "gemini" }

// Classify asks the model for a 0-100 AI-likelihood score
func (c *GeminiClassifier) Classify(ctx context.Context, excerpt string) (*detector.ClassifierResult, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, c.llm, detectionPrompt(excerpt),
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(10),
	)
	if err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: err}
	}

	score, err := parseScore(response)
	if err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: err}
	}

	return &detector.ClassifierResult{
		Probability: score,
		Label:       labelFor(score),
	}, nil
}
