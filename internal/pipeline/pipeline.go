// Package pipeline orchestrates one document analysis: text statistics, the
// AI-detection branch and the plagiarism branch running concurrently, verdict
// fusion, and the report cache.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/BNTiyan/ai-checker/internal/cache"
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/extract"
	"github.com/BNTiyan/ai-checker/internal/metrics"
	"github.com/BNTiyan/ai-checker/internal/models"
	"github.com/BNTiyan/ai-checker/internal/plagiarism"
	"github.com/BNTiyan/ai-checker/internal/textstats"
	"github.com/BNTiyan/ai-checker/internal/verdict"
	"github.com/BNTiyan/ai-checker/pkg/tracing"
)

// joinGrace is how long after the overall budget the join barrier keeps
// waiting for a branch to notice cancellation and drain.
const joinGrace = 2 * time.Second

// Pipeline is the analysis entry point. All mutable shared state lives in
// the injected store; a Pipeline itself is safe for concurrent use.
type Pipeline struct {
	cfg     config.Config
	scorer  *detector.Scorer
	checker *plagiarism.Checker
	store   cache.Store
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Pipeline
func New(cfg config.Config, scorer *detector.Scorer, checker *plagiarism.Checker, store cache.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		scorer:  scorer,
		checker: checker,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the pipeline clock, for tests
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Analyze runs the full pipeline for text, serving from the cache when the
// same content was analyzed within the TTL. sourceID is the upload filename
// or empty for inline text.
func (p *Pipeline) Analyze(ctx context.Context, text, sourceID string) (*models.Report, error) {
	normalized := extract.Normalize(text)

	stats, err := textstats.Compute(normalized, p.cfg.MinWordCount)
	if err != nil {
		var insufficient *textstats.InsufficientTextError
		if errors.As(err, &insufficient) {
			metrics.AnalysesTotal.WithLabelValues("input_error").Inc()
			return nil, &models.InputError{Reason: insufficient.Error()}
		}
		return nil, err
	}

	fingerprint := cache.Fingerprint(normalized)
	if cached, err := p.store.Get(fingerprint); err == nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		p.logger.Info("serving cached report", "fingerprint", fingerprint)
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	ctx, span := tracing.StartSpan(ctx, "pipeline.analyze",
		attribute.Int("text.words", stats.TotalWords),
		attribute.String("fingerprint", fingerprint),
	)
	defer span.End()

	start := p.now()
	ai, plag, degraded, err := p.runBranches(ctx, normalized, stats)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("timeout").Inc()
		return nil, err
	}
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	metrics.ClassifierResults.WithLabelValues(string(ai.Source)).Inc()

	report := &models.Report{
		ReportID:       fingerprint,
		SourceID:       sourceID,
		AnalyzedAt:     p.now(),
		TextStats:      stats,
		AIDetection:    ai,
		Plagiarism:     plag,
		OverallVerdict: verdict.Fuse(p.cfg, ai.Probability, plag.Score),
		Degraded:       degraded,
	}

	// Atomic whole-report write; concurrent computations of the same
	// fingerprint are last-writer-wins.
	if err := p.store.Put(fingerprint, report); err != nil {
		p.logger.Warn("failed to cache report", "fingerprint", fingerprint, "error", err)
	}

	if len(degraded) > 0 {
		metrics.AnalysesTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.AnalysesTotal.WithLabelValues("completed").Inc()
	}

	p.logger.Info("analysis complete",
		"fingerprint", fingerprint,
		"risk_level", report.OverallVerdict.RiskLevel,
		"ai_probability", ai.Probability,
		"plagiarism_score", plag.Score,
		"detection_source", ai.Source,
		"degraded", degraded,
	)
	return report, nil
}

// runBranches executes the two independent branches concurrently and joins
// them under the overall wall-clock budget. When the budget elapses, the
// branch that finished is kept, the other is replaced by its degraded form;
// with neither finished the request fails.
func (p *Pipeline) runBranches(ctx context.Context, text string, stats models.TextMetrics) (models.AIDetectionResult, models.PlagiarismResult, []string, error) {
	budgetCtx, cancel := context.WithTimeout(ctx, p.cfg.OverallTimeout)
	defer cancel()

	aiCh := make(chan models.AIDetectionResult, 1)
	plagCh := make(chan models.PlagiarismResult, 1)

	go func() { aiCh <- p.scorer.Detect(budgetCtx, text, stats) }()
	go func() { plagCh <- p.checker.Check(budgetCtx, text) }()

	var ai models.AIDetectionResult
	var plag models.PlagiarismResult
	aiDone, plagDone := false, false

	deadline := time.NewTimer(p.cfg.OverallTimeout + joinGrace)
	defer deadline.Stop()

	for !(aiDone && plagDone) {
		select {
		case ai = <-aiCh:
			aiDone = true
		case plag = <-plagCh:
			plagDone = true
		case <-deadline.C:
			if !aiDone && !plagDone {
				return ai, plag, nil, &models.PipelineTimeoutError{Budget: p.cfg.OverallTimeout.String()}
			}
			var degraded []string
			if !aiDone {
				ai = p.scorer.HeuristicOnly(stats)
				ai.Confidence = models.ConfidenceLow
				degraded = append(degraded, "ai_detection")
			}
			if !plagDone {
				plag = models.PlagiarismResult{Sources: []models.SourceMatch{}}
				degraded = append(degraded, "plagiarism")
			}
			return ai, plag, degraded, nil
		}
	}
	return ai, plag, nil, nil
}

// GetCachedReport returns the cached report for a fingerprint, or
// cache.ErrNotFound on a miss or expired entry
func (p *Pipeline) GetCachedReport(fingerprint string) (*models.Report, error) {
	return p.store.Get(fingerprint)
}
