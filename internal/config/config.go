package config

import (
	"os"
	"strconv"
	"time"
)

// HeuristicWeights are the per-signal maxima for the structural AI-likelihood
// score. They sum to 100 so the heuristic stays on the same scale as the
// classifier probability.
type HeuristicWeights struct {
	SentenceVariance float64 // low sentence-length variance
	ReadabilityBand  float64 // reading ease inside the band AI text aims for
	GradeBand        float64 // grade level inside the typical AI band
	Repetition       float64 // low unique-word ratio
}

// Config is the full option surface consumed by the pipeline. All values are
// externally supplied; nothing here is hard-coded at call sites.
type Config struct {
	// Input
	MinWordCount int

	// Chunker
	MinChunkChars int
	MaxChunkChars int

	// Source search
	MaxChunksSearched int
	SearchFanOut      int
	ResultsPerQuery   int
	ExcerptWords      int

	// Similarity
	SimilarityNGram     int
	MinRelevance        float64 // per-chunk matches below this score are dropped
	MaxDisplayedSources int

	// Classifier fusion
	ClassifierWeight       float64
	HeuristicWeight        float64
	AgreementTolerance     float64 // probability-point band for "high" confidence
	ClassifierExcerptChars int

	Heuristic HeuristicWeights

	// Verdict thresholds
	AIHighThreshold    float64 // probability above this => likely_ai / ai_generated
	AILowThreshold     float64 // probability at or below this => likely_human
	PlagiarismFlag     float64 // plagiarism score above this => plagiarized
	RiskHighAI         float64
	RiskHighPlagiarism float64
	RiskMediumAI       float64
	RiskMediumPlag     float64

	// Timeouts
	ProviderTimeout time.Duration // per external call
	OverallTimeout  time.Duration // whole-request wall-clock budget

	// Cache
	CacheTTL time.Duration
}

// Default returns the baseline configuration
func Default() Config {
	return Config{
		MinWordCount: 50,

		MinChunkChars: 80,
		MaxChunkChars: 200,

		MaxChunksSearched: 5,
		SearchFanOut:      3,
		ResultsPerQuery:   3,
		ExcerptWords:      32,

		SimilarityNGram:     3,
		MinRelevance:        40,
		MaxDisplayedSources: 10,

		ClassifierWeight:       0.7,
		HeuristicWeight:        0.3,
		AgreementTolerance:     20,
		ClassifierExcerptChars: 2000,

		Heuristic: HeuristicWeights{
			SentenceVariance: 25,
			ReadabilityBand:  25,
			GradeBand:        20,
			Repetition:       30,
		},

		AIHighThreshold:    60,
		AILowThreshold:     40,
		PlagiarismFlag:     30,
		RiskHighAI:         60,
		RiskHighPlagiarism: 50,
		RiskMediumAI:       40,
		RiskMediumPlag:     30,

		ProviderTimeout: 30 * time.Second,
		OverallTimeout:  2 * time.Minute,

		CacheTTL: 24 * time.Hour,
	}
}

// FromEnv returns the default configuration with environment overrides applied
func FromEnv() Config {
	cfg := Default()

	cfg.MinWordCount = getEnvInt("MIN_WORD_COUNT", cfg.MinWordCount)
	cfg.MinChunkChars = getEnvInt("MIN_CHUNK_CHARS", cfg.MinChunkChars)
	cfg.MaxChunkChars = getEnvInt("MAX_CHUNK_CHARS", cfg.MaxChunkChars)
	cfg.MaxChunksSearched = getEnvInt("MAX_CHUNKS_SEARCHED", cfg.MaxChunksSearched)
	cfg.SearchFanOut = getEnvInt("SEARCH_FAN_OUT", cfg.SearchFanOut)
	cfg.ResultsPerQuery = getEnvInt("SEARCH_RESULTS_PER_QUERY", cfg.ResultsPerQuery)
	cfg.MaxDisplayedSources = getEnvInt("MAX_DISPLAYED_SOURCES", cfg.MaxDisplayedSources)
	cfg.ProviderTimeout = getEnvDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	cfg.OverallTimeout = getEnvDuration("OVERALL_TIMEOUT", cfg.OverallTimeout)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)

	return cfg
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
