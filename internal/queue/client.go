// Package queue provides background analysis over asynq: the API enqueues a
// document, a worker runs the pipeline and writes the report to the shared
// store. The job ID is the content fingerprint, so job status is a plain
// store lookup.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TypeAnalyzeDocument is the single task type this service processes
const TypeAnalyzeDocument = "aichecker:analyze_document"

const analysisQueue = "analysis"

// AnalyzeDocumentPayload carries one document to the worker
type AnalyzeDocumentPayload struct {
	Fingerprint string `json:"fingerprint"`
	Text        string `json:"text"`
	SourceID    string `json:"source_id,omitempty"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// Client wraps the asynq client for enqueueing analysis tasks
type Client struct {
	client *asynq.Client
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}),
	}
}

// EnqueueAnalyzeDocument enqueues a document analysis task. The fingerprint
// doubles as the task ID, so re-submitting identical content while a task is
// pending is deduplicated by the queue.
func (c *Client) EnqueueAnalyzeDocument(ctx context.Context, fingerprint, text, sourceID string) (string, error) {
	payload := AnalyzeDocumentPayload{
		Fingerprint: fingerprint,
		Text:        text,
		SourceID:    sourceID,
		EnqueuedAt:  time.Now().UnixNano(),
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeAnalyzeDocument),
			attribute.String("task.id", fingerprint),
		))
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeAnalyzeDocument, payloadBytes, asynq.TaskID(fingerprint))

	info, err := c.client.Enqueue(task,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(analysisQueue),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue analyze document task: %w", err)
	}
	return info.ID, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.client.Close()
}
