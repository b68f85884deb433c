package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BNTiyan/ai-checker/internal/cache"
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/detector"
	"github.com/BNTiyan/ai-checker/internal/models"
	"github.com/BNTiyan/ai-checker/internal/pipeline"
	"github.com/BNTiyan/ai-checker/internal/plagiarism"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeEnqueuer records enqueued documents without a broker
type fakeEnqueuer struct {
	enqueued []string
	err      error
}

func (f *fakeEnqueuer) EnqueueAnalyzeDocument(ctx context.Context, fingerprint, text, sourceID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, fingerprint)
	return fingerprint, nil
}

func sampleEssay() string {
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

func newTestHandler(t *testing.T, queue Enqueuer) http.Handler {
	t.Helper()
	cfg := config.Default()
	logger := testLogger()
	scorer := detector.NewScorer(cfg, detector.NewGateway(nil, cfg.ProviderTimeout, logger))
	checker := plagiarism.NewChecker(cfg, nil, logger)
	p := pipeline.New(cfg, scorer, checker, cache.NewMemoryStore(cfg.CacheTTL), logger)
	return NewHandler(p, queue)
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestAnalyzeText(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postJSON(t, handler, "/api/analyze-text", map[string]string{"text": sampleEssay()})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if report.ReportID == "" {
		t.Error("expected a report ID")
	}
	if report.AIDetection.Source != models.SourceHeuristicOnly {
		t.Errorf("no classifiers configured, expected heuristic_only, got %s", report.AIDetection.Source)
	}
	if report.OverallVerdict.RiskLevel == "" {
		t.Error("expected a risk level")
	}
}

func TestAnalyzeTextTooShort(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postJSON(t, handler, "/api/analyze-text", map[string]string{"text": "too short"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for insufficient text, got %d", rec.Code)
	}
}

func TestAnalyzeTextValidation(t *testing.T) {
	handler := newTestHandler(t, nil)

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"empty text", `{"text": ""}`, http.StatusBadRequest},
		{"malformed json", `{"text": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze-text", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestAnalyzeTextMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/analyze-text", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestAnalyzePDFRejectsNonPDF(t *testing.T) {
	handler := newTestHandler(t, nil)

	var body bytes.Buffer
	body.WriteString("--boundary\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"notes.txt\"\r\n")
	body.WriteString("Content-Type: text/plain\r\n\r\n")
	body.WriteString("plain text content\r\n")
	body.WriteString("--boundary--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-PDF upload, got %d", rec.Code)
	}
}

func TestGetReportNotFound(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/report/deadbeef", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown report, got %d", rec.Code)
	}
}

func TestGetReportAfterAnalysis(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postJSON(t, handler, "/api/analyze-text", map[string]string{"text": sampleEssay()})
	if rec.Code != http.StatusOK {
		t.Fatalf("analysis failed: %d", rec.Code)
	}

	var report models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/report/"+report.ReportID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for cached report, got %d", rec.Code)
	}

	var cached models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &cached); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if cached.ReportID != report.ReportID {
		t.Errorf("expected report %s, got %s", report.ReportID, cached.ReportID)
	}
}

func TestAnalyzeAsyncWithoutQueue(t *testing.T) {
	handler := newTestHandler(t, nil)

	rec := postJSON(t, handler, "/api/analyze-async", map[string]string{"text": sampleEssay()})

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a queue, got %d", rec.Code)
	}
}

func TestAnalyzeAsyncEnqueues(t *testing.T) {
	queue := &fakeEnqueuer{}
	handler := newTestHandler(t, queue)

	rec := postJSON(t, handler, "/api/analyze-async", map[string]string{"text": sampleEssay()})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected one enqueued task, got %d", len(queue.enqueued))
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "queued" {
		t.Errorf("expected queued status, got %v", resp["status"])
	}
	if resp["job_id"] != queue.enqueued[0] {
		t.Error("job ID should match the enqueued fingerprint")
	}
}

func TestAnalyzeAsyncServesCachedResult(t *testing.T) {
	queue := &fakeEnqueuer{}
	handler := newTestHandler(t, queue)

	text := sampleEssay()
	if rec := postJSON(t, handler, "/api/analyze-text", map[string]string{"text": text}); rec.Code != http.StatusOK {
		t.Fatalf("analysis failed: %d", rec.Code)
	}

	rec := postJSON(t, handler, "/api/analyze-async", map[string]string{"text": text})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for cached content, got %d", rec.Code)
	}
	if len(queue.enqueued) != 0 {
		t.Error("cached content must not be re-enqueued")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "completed" {
		t.Errorf("expected completed status, got %v", resp["status"])
	}
}

func TestAnalyzeAsyncEnqueueFailure(t *testing.T) {
	queue := &fakeEnqueuer{err: errors.New("broker unreachable")}
	handler := newTestHandler(t, queue)

	rec := postJSON(t, handler, "/api/analyze-async", map[string]string{"text": sampleEssay()})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on enqueue failure, got %d", rec.Code)
	}
}

func TestJobStatus(t *testing.T) {
	handler := newTestHandler(t, &fakeEnqueuer{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/0123abcd", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "processing" {
		t.Errorf("unknown job should read as processing, got %v", resp["status"])
	}

	// Run the analysis synchronously, then the same ID reads as completed
	analyzed := postJSON(t, handler, "/api/analyze-text", map[string]string{"text": sampleEssay()})
	var report models.Report
	if err := json.Unmarshal(analyzed.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/"+report.ReportID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["status"] != "completed" {
		t.Errorf("expected completed status, got %v", resp["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze-text", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS headers on preflight response")
	}
}
