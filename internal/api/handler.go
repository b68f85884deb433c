package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/BNTiyan/ai-checker/internal/cache"
	"github.com/BNTiyan/ai-checker/internal/extract"
	"github.com/BNTiyan/ai-checker/internal/models"
	"github.com/BNTiyan/ai-checker/internal/pipeline"
	"github.com/BNTiyan/ai-checker/pkg/tracing"
)

// maxUploadBytes caps PDF uploads at 32 MiB
const maxUploadBytes = 32 << 20

// Enqueuer enqueues a background analysis task
type Enqueuer interface {
	EnqueueAnalyzeDocument(ctx context.Context, fingerprint, text, sourceID string) (string, error)
}

// Handler handles HTTP requests
type Handler struct {
	pipeline *pipeline.Pipeline
	queue    Enqueuer // nil when background analysis is not configured
	mux      *http.ServeMux
}

// NewHandler creates the API handler with CORS support and metrics
func NewHandler(p *pipeline.Pipeline, queue Enqueuer) http.Handler {
	h := &Handler{
		pipeline: p,
		queue:    queue,
		mux:      http.NewServeMux(),
	}
	h.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/api/analyze", h.handleAnalyzePDF)
	h.mux.HandleFunc("/api/analyze-text", h.handleAnalyzeText)
	h.mux.HandleFunc("/api/analyze-async", h.handleAnalyzeAsync)
	h.mux.HandleFunc("/api/report/", h.handleGetReport)
	h.mux.HandleFunc("/api/jobs/", h.handleJobStatus)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleAnalyzePDF handles multipart PDF uploads
func (h *Handler) handleAnalyzePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respondError(w, "Only PDF files are supported", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	text, err := extract.PDFText(raw)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.String("upload.filename", header.Filename),
		attribute.Int("text.length", len(text)),
	)

	h.analyze(w, r, text, header.Filename)
}

// handleAnalyzeText handles plain text analysis requests
func (h *Handler) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(), attribute.Int("text.length", len(req.Text)))

	h.analyze(w, r, req.Text, "")
}

// analyze runs the pipeline and writes the report or the mapped error
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, text, sourceID string) {
	report, err := h.pipeline.Analyze(r.Context(), text, sourceID)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondJSON(w, report, http.StatusOK)
}

// handleAnalyzeAsync enqueues a background analysis and returns immediately
func (h *Handler) handleAnalyzeAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.queue == nil {
		respondError(w, "Background analysis is not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return
	}

	fingerprint := cache.Fingerprint(extract.Normalize(req.Text))

	// Identical content already analyzed within the TTL completes instantly
	if report, err := h.pipeline.GetCachedReport(fingerprint); err == nil {
		respondJSON(w, map[string]interface{}{
			"job_id": fingerprint,
			"status": "completed",
			"report": report,
		}, http.StatusOK)
		return
	}

	taskID, err := h.queue.EnqueueAnalyzeDocument(r.Context(), fingerprint, req.Text, "")
	if err != nil {
		respondError(w, "Failed to enqueue analysis: "+err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{
		"job_id":  fingerprint,
		"task_id": taskID,
		"status":  "queued",
		"message": "Analysis queued for processing",
	}, http.StatusAccepted)
}

// handleJobStatus reports the state of a background analysis. The job ID is
// the content fingerprint, so a completed job is simply a cached report.
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if idx := strings.Index(jobID, "/"); idx != -1 {
		jobID = jobID[:idx]
	}
	if jobID == "" {
		respondError(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	report, err := h.pipeline.GetCachedReport(jobID)
	if err != nil {
		respondJSON(w, map[string]interface{}{
			"job_id":  jobID,
			"status":  "processing",
			"message": "Analysis is queued or in progress",
		}, http.StatusOK)
		return
	}

	respondJSON(w, map[string]interface{}{
		"job_id": jobID,
		"status": "completed",
		"report": report,
	}, http.StatusOK)
}

// handleGetReport retrieves a cached report by fingerprint
func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fingerprint := strings.TrimPrefix(r.URL.Path, "/api/report/")
	if fingerprint == "" {
		respondError(w, "Report ID is required", http.StatusBadRequest)
		return
	}

	report, err := h.pipeline.GetCachedReport(fingerprint)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			respondError(w, "Report not found", http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, report, http.StatusOK)
}

// respondPipelineError maps pipeline errors onto HTTP statuses
func respondPipelineError(w http.ResponseWriter, err error) {
	var inputErr *models.InputError
	if errors.As(err, &inputErr) {
		respondError(w, inputErr.Error(), http.StatusBadRequest)
		return
	}
	var timeoutErr *models.PipelineTimeoutError
	if errors.As(err, &timeoutErr) {
		respondError(w, timeoutErr.Error(), http.StatusGatewayTimeout)
		return
	}
	respondError(w, err.Error(), http.StatusInternalServerError)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
