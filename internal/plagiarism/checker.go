package plagiarism

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BNTiyan/ai-checker/internal/chunker"
	"github.com/BNTiyan/ai-checker/internal/config"
	"github.com/BNTiyan/ai-checker/internal/metrics"
	"github.com/BNTiyan/ai-checker/internal/models"
	"github.com/BNTiyan/ai-checker/internal/search"
)

const maxQueryChars = 256

// Checker runs the plagiarism branch: chunk the text, search a bounded sample
// of chunks concurrently, score each chunk against its candidate snippets,
// and aggregate. A single chunk's search failure is recorded as "no matches
// for this chunk", never as a branch failure.
type Checker struct {
	cfg      config.Config
	chunker  *chunker.Chunker
	searcher search.Provider
	logger   *slog.Logger
}

// NewChecker creates a Checker. searcher may be nil when no search provider
// is configured; Check then reports a zero score with no sources.
func NewChecker(cfg config.Config, searcher search.Provider, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		cfg:      cfg,
		chunker:  chunker.New(cfg.MinChunkChars, cfg.MaxChunkChars),
		searcher: searcher,
		logger:   logger,
	}
}

// chunkOutcome is the best match found for one searched chunk
type chunkOutcome struct {
	chunk models.Chunk
	match *models.SourceMatch
}

// Check analyzes text against the external search index
func (c *Checker) Check(ctx context.Context, text string) models.PlagiarismResult {
	if c.searcher == nil {
		return models.PlagiarismResult{Sources: []models.SourceMatch{}}
	}

	chunks := c.chunker.Split(text)
	sampled := sampleChunks(chunks, c.cfg.MaxChunksSearched)

	outcomes := make([]chunkOutcome, len(sampled))
	sem := make(chan struct{}, c.cfg.SearchFanOut)
	var wg sync.WaitGroup
	var unavailable atomic.Bool

	for i, chunk := range sampled {
		wg.Add(1)
		go func(i int, chunk models.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = chunkOutcome{chunk: chunk}
			if unavailable.Load() || ctx.Err() != nil {
				return
			}
			outcomes[i].match = c.searchChunk(ctx, chunk, &unavailable)
		}(i, chunk)
	}
	wg.Wait()

	return c.aggregate(outcomes)
}

// searchChunk issues one query for a chunk and keeps the best-scoring hit
// above the relevance threshold
func (c *Checker) searchChunk(ctx context.Context, chunk models.Chunk, unavailable *atomic.Bool) *models.SourceMatch {
	query := buildQuery(chunk.Text, c.cfg.ExcerptWords)

	hits, err := c.searchWithRetry(ctx, query)
	if err != nil {
		var permanent *models.PermanentError
		if errors.As(err, &permanent) {
			// No point hammering a provider that rejects our credentials
			unavailable.Store(true)
		}
		metrics.ChunkSearchFailures.Inc()
		c.logger.Warn("chunk search failed, recording no matches",
			"chunk_index", chunk.Index,
			"error", err,
		)
		return nil
	}

	var best *models.SourceMatch
	for _, hit := range hits {
		score := Similarity(chunk.Text, hit.Snippet, c.cfg.SimilarityNGram)
		if score < c.cfg.MinRelevance {
			continue
		}
		if best == nil || score > best.Similarity {
			best = &models.SourceMatch{
				Title:      hit.Title,
				URL:        hit.URL,
				Snippet:    hit.Snippet,
				Similarity: score,
				ChunkIndex: chunk.Index,
			}
		}
	}
	return best
}

// searchWithRetry retries a transient search failure once within the budget
func (c *Checker) searchWithRetry(ctx context.Context, query string) ([]search.Hit, error) {
	hits, err := c.searchOnce(ctx, query)
	if err == nil {
		return hits, nil
	}

	var transient *models.TransientError
	if errors.As(err, &transient) && ctx.Err() == nil {
		return c.searchOnce(ctx, query)
	}
	return nil, err
}

func (c *Checker) searchOnce(ctx context.Context, query string) ([]search.Hit, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
	defer cancel()
	return c.searcher.Search(callCtx, query, c.cfg.ResultsPerQuery)
}

// aggregate computes the length-weighted overall score and the deduplicated,
// ranked source list. Chunk order breaks similarity ties so the result is
// deterministic regardless of search completion order.
func (c *Checker) aggregate(outcomes []chunkOutcome) models.PlagiarismResult {
	result := models.PlagiarismResult{
		Sources:       []models.SourceMatch{},
		ChunksChecked: len(outcomes),
	}

	totalChars := 0
	weighted := 0.0
	bestByURL := make(map[string]models.SourceMatch)

	for _, o := range outcomes {
		length := len(o.chunk.Text)
		totalChars += length
		if o.match == nil {
			continue
		}
		weighted += o.match.Similarity * float64(length)

		existing, seen := bestByURL[o.match.URL]
		if !seen || o.match.Similarity > existing.Similarity {
			bestByURL[o.match.URL] = *o.match
		}
	}

	if totalChars > 0 {
		result.Score = round2(weighted / float64(totalChars))
	}

	for _, m := range bestByURL {
		result.Sources = append(result.Sources, m)
	}
	sort.Slice(result.Sources, func(i, j int) bool {
		if result.Sources[i].Similarity != result.Sources[j].Similarity {
			return result.Sources[i].Similarity > result.Sources[j].Similarity
		}
		return result.Sources[i].ChunkIndex < result.Sources[j].ChunkIndex
	})
	if len(result.Sources) > c.cfg.MaxDisplayedSources {
		result.Sources = result.Sources[:c.cfg.MaxDisplayedSources]
	}

	return result
}

// sampleChunks caps the searched chunks, spreading the sample evenly across
// long documents instead of only probing the opening paragraphs
func sampleChunks(chunks []models.Chunk, max int) []models.Chunk {
	if max <= 0 || len(chunks) <= max {
		return chunks
	}

	sampled := make([]models.Chunk, 0, max)
	step := float64(len(chunks)) / float64(max)
	for i := 0; i < max; i++ {
		sampled = append(sampled, chunks[int(float64(i)*step)])
	}
	return sampled
}

// buildQuery turns a chunk into a quoted exact-match query using a
// representative excerpt, keeping well under provider query-length limits
func buildQuery(chunkText string, excerptWords int) string {
	words := strings.Fields(chunkText)
	if len(words) > excerptWords {
		words = words[:excerptWords]
	}
	q := strings.Join(words, " ")
	if len(q) > maxQueryChars {
		q = q[:maxQueryChars]
		if idx := strings.LastIndex(q, " "); idx > 0 {
			q = q[:idx]
		}
	}
	return `"` + q + `"`
}
