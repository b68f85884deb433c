package detector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/BNTiyan/ai-checker/internal/models"
)

// ClassifierResult is what an external AI-text classifier returns
type ClassifierResult struct {
	Probability   float64 // 0-100, higher means more likely AI-generated
	Label         string
	RawConfidence float64 // 0-1, provider's own confidence if it reports one
}

// Classifier is one external AI-text classification provider. Implementations
// classify a text excerpt within the deadline on ctx and report failures as
// models.TransientError or models.PermanentError.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, excerpt string) (*ClassifierResult, error)
}

// GatewayResult tags a classifier result with the chain position that
// produced it, so callers can distinguish primary from fallback output.
type GatewayResult struct {
	Result   ClassifierResult
	Provider string
	Fallback bool // true when a provider after the first in the chain answered
}

// Gateway tries an ordered provider chain until one answers. A provider's
// failure never surfaces to the caller: transient failures get one retry,
// permanent failures skip the provider, and total exhaustion returns
// (nil, nil) so the scorer can degrade to heuristic-only output.
type Gateway struct {
	providers []Classifier
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGateway creates a gateway over the given chain. Unconfigured providers
// are simply absent from the slice.
func NewGateway(providers []Classifier, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{providers: providers, timeout: timeout, logger: logger}
}

// Available reports whether any provider is configured
func (g *Gateway) Available() bool {
	return len(g.providers) > 0
}

// Classify walks the chain in order and returns the first successful result,
// or (nil, nil) when every provider is exhausted or unconfigured.
func (g *Gateway) Classify(ctx context.Context, excerpt string) (*GatewayResult, error) {
	for i, p := range g.providers {
		result, err := g.callWithRetry(ctx, p, excerpt)
		if err != nil {
			g.logger.Warn("classifier provider failed, falling through",
				"provider", p.Name(),
				"position", i,
				"error", err,
			)
			if ctx.Err() != nil {
				// The request budget is gone; no point trying further providers
				return nil, nil
			}
			continue
		}

		return &GatewayResult{
			Result:   *result,
			Provider: p.Name(),
			Fallback: i > 0,
		}, nil
	}
	return nil, nil
}

// callWithRetry calls one provider with the per-call timeout, retrying once
// on a transient failure within the remaining budget.
func (g *Gateway) callWithRetry(ctx context.Context, p Classifier, excerpt string) (*ClassifierResult, error) {
	result, err := g.call(ctx, p, excerpt)
	if err == nil {
		return result, nil
	}

	var transient *models.TransientError
	if errors.As(err, &transient) && ctx.Err() == nil {
		g.logger.Debug("retrying transient classifier failure", "provider", p.Name())
		return g.call(ctx, p, excerpt)
	}
	return nil, err
}

func (g *Gateway) call(ctx context.Context, p Classifier, excerpt string) (*ClassifierResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := p.Classify(callCtx, excerpt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &models.TransientError{Provider: p.Name(), Err: err}
		}
		return nil, err
	}

	if result.Probability < 0 {
		result.Probability = 0
	}
	if result.Probability > 100 {
		result.Probability = 100
	}
	return result, nil
}
