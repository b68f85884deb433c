package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BNTiyan/ai-checker/internal/cache"
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/extract"
	"github.com/BNTiyan/ai-checker/internal/pipeline"
	"github.com/BNTiyan/ai-checker/internal/plagiarism"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPipeline() *pipeline.Pipeline {
	cfg := config.Default()
	logger := testLogger()
	scorer := detector.NewScorer(cfg, detector.NewGateway(nil, cfg.ProviderTimeout, logger))
	checker := plagiarism.NewChecker(cfg, nil, logger)
	return pipeline.New(cfg, scorer, checker, cache.NewMemoryStore(cfg.CacheTTL), logger)
}

func sampleDocument() string {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		b.WriteString(fmt.Sprintf("token%d ", i))
		if i%12 == 11 {
			b.WriteString(". ")
		}
	}
	b.WriteString(".")
	return b.String()
}

func analyzeTask(t *testing.T, payload AnalyzeDocumentPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TypeAnalyzeDocument, raw)
}

func TestNewWorker(t *testing.T) {
	// Construction must not touch Redis
	w := NewWorker(WorkerConfig{RedisAddr: "localhost:6379"}, testPipeline(), testLogger())
	require.NotNil(t, w)
	assert.NotNil(t, w.server)
	assert.NotNil(t, w.mux)
}

func TestHandleAnalyzeDocument(t *testing.T) {
	p := testPipeline()
	w := NewWorker(WorkerConfig{RedisAddr: "localhost:6379"}, p, testLogger())

	text := sampleDocument()
	fingerprint := cache.Fingerprint(extract.Normalize(text))

	task := analyzeTask(t, AnalyzeDocumentPayload{
		Fingerprint: fingerprint,
		Text:        text,
		SourceID:    "essay.txt",
	})

	err := w.handleAnalyzeDocument(context.Background(), task)
	require.NoError(t, err)

	// The job ID is the fingerprint, so completion is a store lookup
	report, err := p.GetCachedReport(fingerprint)
	require.NoError(t, err)
	assert.Equal(t, fingerprint, report.ReportID)
	assert.Equal(t, "essay.txt", report.SourceID)
}

func TestHandleAnalyzeDocumentDropsBadInput(t *testing.T) {
	w := NewWorker(WorkerConfig{RedisAddr: "localhost:6379"}, testPipeline(), testLogger())

	task := analyzeTask(t, AnalyzeDocumentPayload{
		Fingerprint: "irrelevant",
		Text:        "far too short",
	})

	// Unanalyzable input must not be retried
	err := w.handleAnalyzeDocument(context.Background(), task)
	assert.NoError(t, err)
}

func TestHandleAnalyzeDocumentInvalidPayload(t *testing.T) {
	w := NewWorker(WorkerConfig{RedisAddr: "localhost:6379"}, testPipeline(), testLogger())

	task := asynq.NewTask(TypeAnalyzeDocument, []byte("{not json"))
	err := w.handleAnalyzeDocument(context.Background(), task)
	assert.Error(t, err)
}

func TestHandleAnalyzeDocumentResumesTrace(t *testing.T) {
	p := testPipeline()
	w := NewWorker(WorkerConfig{RedisAddr: "localhost:6379"}, p, testLogger())

	text := sampleDocument()
	task := analyzeTask(t, AnalyzeDocumentPayload{
		Fingerprint: cache.Fingerprint(extract.Normalize(text)),
		Text:        text,
		TraceID:     "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:      "00f067aa0ba902b7",
	})

	// Valid remote trace identifiers must not break processing
	err := w.handleAnalyzeDocument(context.Background(), task)
	assert.NoError(t, err)
}
