package detector

import (
	"context"
	"math"
	"unicode/utf8"

	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/models"
)

// Scorer fuses the heuristic sub-score with classifier gateway output into a
// single AI-generation verdict. A result is always producible: with every
// provider unreachable the scorer degrades to heuristic-only output.
type Scorer struct {
	cfg       config.Config
	heuristic *HeuristicScorer
	gateway   *Gateway
}

// NewScorer creates a Scorer. gateway may be a gateway over an empty chain
// when no classifier is configured.
func NewScorer(cfg config.Config, gateway *Gateway) *Scorer {
	return &Scorer{
		cfg:       cfg,
		heuristic: NewHeuristicScorer(cfg.Heuristic),
		gateway:   gateway,
	}
}

// Detect produces the AI-detection result for text with precomputed metrics
func (s *Scorer) Detect(ctx context.Context, text string, metrics models.TextMetrics) models.AIDetectionResult {
	heuristicScore := s.heuristic.Score(metrics)

	var gwResult *GatewayResult
	if s.gateway != nil && s.gateway.Available() {
		gwResult, _ = s.gateway.Classify(ctx, excerpt(text, s.cfg.ClassifierExcerptChars))
	}

	result := models.AIDetectionResult{Metrics: metrics}

	if gwResult == nil {
		result.Probability = round2(heuristicScore)
		result.Confidence = models.ConfidenceMedium // capped without corroboration
		result.Source = models.SourceHeuristicOnly
	} else {
		classifierScore := gwResult.Result.Probability
		result.Probability = round2(s.cfg.ClassifierWeight*classifierScore + s.cfg.HeuristicWeight*heuristicScore)
		if math.Abs(classifierScore-heuristicScore) <= s.cfg.AgreementTolerance {
			result.Confidence = models.ConfidenceHigh
		} else {
			result.Confidence = models.ConfidenceMedium
		}
		if gwResult.Fallback {
			result.Source = models.SourceClassifierFallback
		} else {
			result.Source = models.SourceClassifierPrimary
		}
	}

	result.Verdict = s.verdict(result.Probability)
	return result
}

// HeuristicOnly produces the result used when the classifier branch is
// skipped or could not complete: probability from the structural score alone,
// confidence capped at medium.
func (s *Scorer) HeuristicOnly(metrics models.TextMetrics) models.AIDetectionResult {
	probability := round2(s.heuristic.Score(metrics))
	return models.AIDetectionResult{
		Probability: probability,
		Confidence:  models.ConfidenceMedium,
		Verdict:     s.verdict(probability),
		Metrics:     metrics,
		Source:      models.SourceHeuristicOnly,
	}
}

func (s *Scorer) verdict(probability float64) models.AIVerdict {
	switch {
	case probability > s.cfg.AIHighThreshold:
		return models.VerdictLikelyAI
	case probability <= s.cfg.AILowThreshold:
		return models.VerdictLikelyHuman
	default:
		return models.VerdictUncertain
	}
}

// excerpt truncates text to at most maxChars bytes on a rune boundary, so
// provider calls stay under prompt-size limits.
func excerpt(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
