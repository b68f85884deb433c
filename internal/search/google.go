package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/BNTiyan/ai-checker/internal/models"
)

// GoogleSearcher queries the Google Custom Search JSON API
type GoogleSearcher struct {
	service  *customsearch.Service
	engineID string
}

// NewGoogleSearcher creates a searcher bound to one programmable search engine
func NewGoogleSearcher(ctx context.Context, apiKey, engineID string) (*GoogleSearcher, error) {
	service, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search service: %w", err)
	}
	return &GoogleSearcher{service: service, engineID: engineID}, nil
}

func (s *GoogleSearcher) Name() string { return "google_custom_search" }

// Search runs one query and collects up to num hits
func (s *GoogleSearcher) Search(ctx context.Context, query string, num int) ([]Hit, error) {
	resp, err := s.service.Cse.List().
		Context(ctx).
		Cx(s.engineID).
		Q(query).
		Num(int64(num)).
		Do()
	if err != nil {
		return nil, classifySearchError(s.Name(), err)
	}

	hits := make([]Hit, 0, len(resp.Items))
	for _, item := range resp.Items {
		hits = append(hits, Hit{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}
	return hits, nil
}

// classifySearchError sorts API failures into the retry taxonomy. Quota
// exhaustion and server errors are transient; rejected credentials are not.
func classifySearchError(provider string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
			return &models.PermanentError{Provider: provider, Err: err}
		}
	}
	return &models.TransientError{Provider: provider, Err: err}
}
