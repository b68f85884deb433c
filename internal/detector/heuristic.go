package detector

import (
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/models"
)

// HeuristicScorer derives a 0-100 structural AI-likelihood score from text
// statistics alone. AI text tends toward uniform sentence length, a narrow
// readability band, and higher lexical repetition than human prose.
type HeuristicScorer struct {
	weights config.HeuristicWeights
}

// NewHeuristicScorer creates a scorer with the given signal weights
func NewHeuristicScorer(weights config.HeuristicWeights) *HeuristicScorer {
	return &HeuristicScorer{weights: weights}
}

// Score computes the structural AI-likelihood sub-score for metrics.
// Deterministic for identical input and weights.
func (h *HeuristicScorer) Score(m models.TextMetrics) float64 {
	score := 0.0

	// Consistent sentence length
	switch {
	case m.SentenceLengthVariance < 10:
		score += h.weights.SentenceVariance
	case m.SentenceLengthVariance < 20:
		score += h.weights.SentenceVariance * 0.6
	}

	// Reading ease inside the band generated text aims for
	switch {
	case m.FleschReadingEase >= 55 && m.FleschReadingEase <= 75:
		score += h.weights.ReadabilityBand
	case m.FleschReadingEase >= 45 && m.FleschReadingEase <= 85:
		score += h.weights.ReadabilityBand * 0.6
	}

	// Grade level consistency
	switch {
	case m.FleschKincaidGrade >= 8 && m.FleschKincaidGrade <= 12:
		score += h.weights.GradeBand
	case m.FleschKincaidGrade >= 6 && m.FleschKincaidGrade <= 14:
		score += h.weights.GradeBand * 0.5
	}

	// Lexical repetition
	switch {
	case m.UniqueWordRatio < 0.4:
		score += h.weights.Repetition
	case m.UniqueWordRatio < 0.6:
		score += h.weights.Repetition * 0.5
	}

	if score > 100 {
		score = 100
	}
	return score
}
