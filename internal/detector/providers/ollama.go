package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/models"
)

const defaultOllamaModel = "gpt-oss:20b"

// OllamaClassifier scores text with a locally hosted model. Useful as the
// last link of the chain: it keeps detection working with no external keys
// at all, at the cost of a slower call.
type OllamaClassifier struct {
	client *api.Client
	model  string
}

// NewOllamaClassifier creates the Ollama-backed classifier
func NewOllamaClassifier(ollamaURL, model string) (*OllamaClassifier, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = defaultOllamaModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaClassifier{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (c *OllamaClassifier) Name() string { return "ollama" }

// ollamaAssessment is the JSON shape the model is asked to produce
type ollamaAssessment struct {
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
}

// Classify asks the local model for a structured assessment
func (c *OllamaClassifier) Classify(ctx context.Context, excerpt string) (*detector.ClassifierResult, error) {
	prompt := fmt.Sprintf(`Analyze the following text to determine if it was written by an AI or a human. Consider factors such as:

1. Writing patterns (repetitive structures, overly formal tone, perfect grammar)
2. Vocabulary choices (overuse of certain words, lack of colloquialisms)
3. Content structure (formulaic organization, lack of personal anecdotes)
4. Stylistic markers (balanced arguments, hedging language, transitions)

Provide your assessment as a JSON object with:
- probability: 0-100 where 0 = definitely human, 100 = definitely AI-generated
- label: "ai" | "mixed" | "human"
- confidence: 0.0-1.0, how sure you are

Text to analyze:
%s

Return ONLY the JSON object, nothing else:`, excerpt)

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
	}

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: fmt.Errorf("generation failed: %w", err)}
	}

	assessment, err := parseAssessment(response.String())
	if err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: err}
	}

	return &detector.ClassifierResult{
		Probability:   assessment.Probability,
		Label:         assessment.Label,
		RawConfidence: assessment.Confidence,
	}, nil
}

// parseAssessment finds the JSON object in a model response that may carry
// prose around it
func parseAssessment(response string) (*ollamaAssessment, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var assessment ollamaAssessment
	if err := json.Unmarshal([]byte(response[start:end+1]), &assessment); err != nil {
		return nil, fmt.Errorf("failed to parse assessment JSON: %w", err)
	}
	if assessment.Probability < 0 || assessment.Probability > 100 {
		return nil, fmt.Errorf("probability %v out of range", assessment.Probability)
	}
	return &assessment, nil
}
