package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/models"
)

const gptZeroEndpoint = "https://api.gptzero.me/v2/predict/text"

// GPTZeroClassifier calls the GPTZero detection API. Unlike the LLM-backed
// providers this is a purpose-built detector, so its probability is used
// as-is rather than parsed out of a completion. GPTZero ships no Go SDK, so
// the call is a plain JSON POST.
type GPTZeroClassifier struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
}

// NewGPTZeroClassifier creates the GPTZero-backed classifier
func NewGPTZeroClassifier(apiKey string) *GPTZeroClassifier {
	return &GPTZeroClassifier{
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		endpoint:   gptZeroEndpoint,
	}
}

func (c *GPTZeroClassifier) Name() string { return "gptzero" }

type gptZeroResponse struct {
	Documents []struct {
		CompletelyGeneratedProb float64 `json:"completely_generated_prob"`
		AverageGeneratedProb    float64 `json:"average_generated_prob"`
	} `json:"documents"`
}

// Classify submits the excerpt and reads the average generated probability
func (c *GPTZeroClassifier) Classify(ctx context.Context, excerpt string) (*detector.ClassifierResult, error) {
	body, err := json.Marshal(map[string]string{"document": excerpt})
	if err != nil {
		return nil, &models.PermanentError{Provider: c.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &models.PermanentError{Provider: c.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &models.PermanentError{Provider: c.Name(), Err: fmt.Errorf("request rejected with status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &models.TransientError{Provider: c.Name(), Err: fmt.Errorf("request failed with status %d", resp.StatusCode)}
	}

	var parsed gptZeroResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &models.TransientError{Provider: c.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Documents) == 0 {
		return nil, &models.TransientError{Provider: c.Name(), Err: fmt.Errorf("empty documents in response")}
	}

	score := parsed.Documents[0].AverageGeneratedProb * 100
	return &detector.ClassifierResult{
		Probability:   score,
		Label:         labelFor(score),
		RawConfidence: parsed.Documents[0].CompletelyGeneratedProb,
	}, nil
}
