package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BNTiyan/ai-checker/internal/models"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected float64
		wantErr  bool
	}{
		{"bare number", "85", 85, false},
		{"decimal", "72.5", 72.5, false},
		{"trailing period", "40.", 40, false},
		{"surrounding whitespace", "  60  ", 60, false},
		{"prose around number", "The score is 73 out of 100", 73, false},
		{"zero", "0", 0, false},
		{"hundred", "100", 100, false},
		{"no number", "definitely human", 0, true},
		{"out of range", "250", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %v", tt.response, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("parseScore(%q) = %v, expected %v", tt.response, got, tt.expected)
			}
		})
	}
}

func TestDetectionPrompt(t *testing.T) {
	excerpt := "the text under examination"
	prompt := detectionPrompt(excerpt)

	if !strings.Contains(prompt, excerpt) {
		t.Error("prompt must embed the excerpt")
	}
	if !strings.Contains(prompt, "ONLY a number from 0-100") {
		t.Error("prompt must demand a bare numeric response")
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{0, "human"},
		{50, "human"},
		{51, "mixed"},
		{70, "mixed"},
		{71, "ai"},
		{100, "ai"},
	}

	for _, tt := range tests {
		if got := labelFor(tt.score); got != tt.expected {
			t.Errorf("labelFor(%v) = %q, expected %q", tt.score, got, tt.expected)
		}
	}
}

func TestParseAssessment(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected float64
		wantErr  bool
	}{
		{"clean json", `{"probability": 80, "label": "ai", "confidence": 0.9}`, 80, false},
		{"prose around json", `Here is my assessment: {"probability": 25, "label": "human", "confidence": 0.7} Hope that helps!`, 25, false},
		{"no json", "I cannot assess this text", 0, true},
		{"malformed json", `{"probability": }`, 0, true},
		{"out of range", `{"probability": 150, "label": "ai", "confidence": 1}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssessment(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.response)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Probability != tt.expected {
				t.Errorf("expected probability %v, got %v", tt.expected, got.Probability)
			}
		})
	}
}

func newGPTZeroTestClassifier(server *httptest.Server) *GPTZeroClassifier {
	c := NewGPTZeroClassifier("test-key")
	c.endpoint = server.URL
	c.httpClient = server.Client()
	return c
}

func TestGPTZeroClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"documents": [{"completely_generated_prob": 0.92, "average_generated_prob": 0.85}]}`))
	}))
	defer server.Close()

	result, err := newGPTZeroTestClassifier(server).Classify(context.Background(), "text to score")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Probability != 85 {
		t.Errorf("expected probability 85, got %v", result.Probability)
	}
	if result.Label != "ai" {
		t.Errorf("expected ai label, got %q", result.Label)
	}
}

func TestGPTZeroErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		permanent bool
	}{
		{"unauthorized", http.StatusUnauthorized, true},
		{"forbidden", http.StatusForbidden, true},
		{"rate limited", http.StatusTooManyRequests, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newGPTZeroTestClassifier(server).Classify(context.Background(), "text")
			if err == nil {
				t.Fatal("expected an error")
			}

			var permanent *models.PermanentError
			var transient *models.TransientError
			if tt.permanent {
				if !errors.As(err, &permanent) {
					t.Errorf("expected PermanentError, got %v", err)
				}
			} else {
				if !errors.As(err, &transient) {
					t.Errorf("expected TransientError, got %v", err)
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 80); got != "short" {
		t.Errorf("short strings should pass through, got %q", got)
	}
	long := strings.Repeat("x", 100)
	if got := truncate(long, 80); len(got) != 83 || !strings.HasSuffix(got, "...") {
		t.Errorf("long strings should be cut with an ellipsis, got %d chars", len(got))
	}
}
