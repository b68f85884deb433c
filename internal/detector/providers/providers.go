// Package providers contains the concrete classifier implementations behind
// the detection gateway: OpenAI, Gemini, a local Ollama model, and GPTZero.
// Each is selected purely by availability of configuration.
package providers

import (
	"fmt"
	"strconv"
	"strings"
)

// detectionPrompt asks a general-purpose LLM to rate AI-likelihood as a bare
// number, which keeps parsing trivial across providers.
func detectionPrompt(excerpt string) string {
	return fmt.Sprintf(`Analyze the following text and determine if it was likely written by AI or a human.
Consider factors like:
- Writing style consistency
- Vocabulary sophistication
- Natural flow and transitions
- Presence of AI-typical patterns (overly formal, generic phrases)
- Human elements (personal anecdotes, unique perspectives, inconsistencies)

Text to analyze:
%s

Respond with ONLY a number from 0-100, where:
- 0-30 = Definitely human-written
- 31-50 = Likely human-written
- 51-70 = Uncertain/Mixed
- 71-90 = Likely AI-generated
- 91-100 = Definitely AI-generated

Your response (number only):`, excerpt)
}

// parseScore extracts a 0-100 score from a model response that should be a
// bare number but sometimes arrives with prose around it
func parseScore(response string) (float64, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(response) {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		} else if b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return 0, fmt.Errorf("no numeric score in response %q", truncate(response, 80))
	}

	score, err := strconv.ParseFloat(strings.TrimSuffix(b.String(), "."), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed score in response %q: %w", truncate(response, 80), err)
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score %v out of range", score)
	}
	return score, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
