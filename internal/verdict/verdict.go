// Package verdict combines the AI-detection and plagiarism scores into the
// final risk classification. The two scores are never blended into a single
// number; they stay independent facts plus one derived tier.
package verdict

import (
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/models"
)

// Fuse derives the overall verdict from the two branch scores. State-free.
func Fuse(cfg config.Config, aiProbability, plagiarismScore float64) models.Verdict {
	v := models.Verdict{
		AIGenerated: aiProbability > cfg.AIHighThreshold,
		Plagiarized: plagiarismScore > cfg.PlagiarismFlag,
	}

	switch {
	case aiProbability > cfg.RiskHighAI || plagiarismScore > cfg.RiskHighPlagiarism:
		v.RiskLevel = models.RiskHigh
	case aiProbability > cfg.RiskMediumAI || plagiarismScore > cfg.RiskMediumPlag:
		v.RiskLevel = models.RiskMedium
	default:
		v.RiskLevel = models.RiskLow
	}
	return v
}
