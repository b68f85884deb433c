package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/models"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClassifier scores text with an OpenAI chat model
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier creates the OpenAI-backed classifier
func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *OpenAIClassifier) Name() string { return "openai" }

// Classify asks the model for a 0-100 AI-likelihood score
func (c *OpenAIClassifier) Classify(ctx context.Context, excerpt string) (*detector.ClassifierResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert at detecting AI-generated text. Respond with only a number.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: detectionPrompt(excerpt),
			},
		},
		Temperature: 0.3,
		MaxTokens:   10,
	})
	if err != nil {
		return nil, classifyOpenAIError(c.Name(), err)
	}

	if len(resp.Choices) == 0 {
		return nil, &models.TransientError{Provider: c.Name(), Err: fmt.Errorf("empty completion")}
	}

	score, err := parseScore(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: err}
	}

	return &detector.ClassifierResult{
		Probability: score,
		Label:       labelFor(score),
	}, nil
}

// classifyOpenAIError sorts API failures into the retry taxonomy
func classifyOpenAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &models.PermanentError{Provider: provider, Err: err}
		}
	}
	return &models.TransientError{Provider: provider, Err: err}
}

func labelFor(score float64) string {
	switch {
	case score > 70:
		return "ai"
	case score > 50:
		return "mixed"
	default:
		return "human"
	}
}
