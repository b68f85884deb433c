package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/BNTiyan/ai-checker/internal/models"
	"github.com/BNTiyan/ai-checker/internal/pipeline"
)

// Worker wraps the asynq server for processing analysis tasks
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr   string
	Concurrency int
}

// NewWorker creates a new queue worker backed by the given pipeline
func NewWorker(cfg WorkerConfig, p *pipeline.Pipeline, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	serverCfg := asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			analysisQueue: 1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delays := []time.Duration{
				30 * time.Second,
				2 * time.Minute,
				10 * time.Minute,
			}
			if n < len(delays) {
				return delays[n]
			}
			return delays[len(delays)-1]
		},
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)
		}),
	}

	w := &Worker{
		server:   asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, serverCfg),
		mux:      asynq.NewServeMux(),
		pipeline: p,
		logger:   logger,
	}
	w.mux.HandleFunc(TypeAnalyzeDocument, w.handleAnalyzeDocument)
	return w
}

// Start begins processing tasks; it blocks until Shutdown
func (w *Worker) Start() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleAnalyzeDocument runs the pipeline for one queued document. The
// pipeline writes the report to the shared store under the fingerprint, which
// is also how job status is answered.
func (w *Worker) handleAnalyzeDocument(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzeDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid task payload: %w", err)
	}

	var queueWait time.Duration
	if payload.EnqueuedAt > 0 {
		queueWait = time.Since(time.Unix(0, payload.EnqueuedAt))
	}

	ctx, span := w.resumeTrace(ctx, payload, queueWait)
	if span != nil {
		defer span.End()
	}

	w.logger.Info("processing queued analysis",
		"fingerprint", payload.Fingerprint,
		"text_length", len(payload.Text),
		"queue_wait_seconds", queueWait.Seconds(),
	)

	_, err := w.pipeline.Analyze(ctx, payload.Text, payload.SourceID)
	if err != nil {
		var inputErr *models.InputError
		if errors.As(err, &inputErr) {
			// Bad input cannot be fixed by retrying
			w.logger.Warn("dropping unanalyzable queued document",
				"fingerprint", payload.Fingerprint,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("analysis failed: %w", err)
	}
	return nil
}

// resumeTrace links the worker span to the span that enqueued the task
func (w *Worker) resumeTrace(ctx context.Context, payload AnalyzeDocumentPayload, queueWait time.Duration) (context.Context, trace.Span) {
	if payload.TraceID == "" || payload.SpanID == "" {
		return ctx, nil
	}

	traceID, err := trace.TraceIDFromHex(payload.TraceID)
	if err != nil {
		return ctx, nil
	}
	spanID, err := trace.SpanIDFromHex(payload.SpanID)
	if err != nil {
		return ctx, nil
	}

	remoteSpanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx = trace.ContextWithRemoteSpanContext(ctx, remoteSpanCtx)

	ctx, span := otel.Tracer("ai-checker").Start(ctx, "asynq.task.analyze",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("task.type", TypeAnalyzeDocument),
			attribute.String("fingerprint", payload.Fingerprint),
			attribute.Float64("queue.wait_time_seconds", queueWait.Seconds()),
		),
	)
	return ctx, span
}
