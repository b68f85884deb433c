package models

import "time"

// Confidence describes how much the detection signals agree with each other,
// not how extreme the probability is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// AIVerdict classifies the AI-detection probability
type AIVerdict string

const (
	VerdictLikelyHuman AIVerdict = "likely_human"
	VerdictUncertain   AIVerdict = "uncertain"
	VerdictLikelyAI    AIVerdict = "likely_ai"
)

// DetectionSource records which path produced the AI-detection probability
type DetectionSource string

const (
	SourceHeuristicOnly      DetectionSource = "heuristic_only"
	SourceClassifierPrimary  DetectionSource = "classifier_primary"
	SourceClassifierFallback DetectionSource = "classifier_fallback"
)

// RiskLevel is the fused risk tier of a report
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Document is a normalized input text plus its identity. Immutable once built.
type Document struct {
	Text      string `json:"-"`
	SourceID  string `json:"source_id"` // upload filename or inline-text hash
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
}

// TextMetrics contains corpus-level statistics for a document
type TextMetrics struct {
	TotalWords             int     `json:"total_words"`
	TotalCharacters        int     `json:"total_characters"`
	TotalSentences         int     `json:"total_sentences"`
	AvgSentenceLength      float64 `json:"avg_sentence_length"`
	SentenceLengthVariance float64 `json:"sentence_length_variance"`
	UniqueWordRatio        float64 `json:"unique_word_ratio"`
	FleschReadingEase      float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade     float64 `json:"flesch_kincaid_grade"`
}

// AIDetectionResult is the fused AI-generation verdict for a document
type AIDetectionResult struct {
	Probability float64         `json:"probability"` // 0-100
	Confidence  Confidence      `json:"confidence"`
	Verdict     AIVerdict       `json:"verdict"`
	Metrics     TextMetrics     `json:"metrics"`
	Source      DetectionSource `json:"source"`
}

// Chunk is a bounded, non-overlapping span of document text used as the
// unit of plagiarism search. Concatenating all chunk texts in index order
// reconstructs the normalized input exactly.
type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"` // exclusive
}

// SourceMatch is one candidate plagiarism source for a chunk
type SourceMatch struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"` // 0-100
	ChunkIndex int     `json:"chunk_index"`
}

// PlagiarismResult aggregates per-chunk matches into an overall score
type PlagiarismResult struct {
	Score         float64       `json:"score"` // 0-100, length-weighted
	Sources       []SourceMatch `json:"sources"`
	ChunksChecked int           `json:"chunks_checked"`
}

// Verdict is the fused risk summary. The two scores are never blended into
// one number; they stay side-by-side facts plus one derived tier.
type Verdict struct {
	RiskLevel   RiskLevel `json:"risk_level"`
	AIGenerated bool      `json:"ai_generated"`
	Plagiarized bool      `json:"plagiarized"`
}

// Report is the finished analysis for one document
type Report struct {
	ReportID       string            `json:"report_id"` // content fingerprint
	SourceID       string            `json:"source_id,omitempty"`
	AnalyzedAt     time.Time         `json:"analyzed_at"`
	TextStats      TextMetrics       `json:"text_stats"`
	AIDetection    AIDetectionResult `json:"ai_detection"`
	Plagiarism     PlagiarismResult  `json:"plagiarism"`
	OverallVerdict Verdict           `json:"overall_verdict"`
	Degraded       []string          `json:"degraded,omitempty"` // branches cut short by the overall budget
}
