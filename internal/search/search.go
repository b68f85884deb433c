// Package search defines the web-search capability the plagiarism branch
// queries, plus its Google Custom Search implementation.
package search

import "context"

// Hit is one candidate source returned for a query
type Hit struct {
	Title   string
	URL     string
	Snippet string
}

// Provider issues one search query and returns up to the requested number of
// hits. Failures are reported as models.TransientError or
// models.PermanentError so callers can apply the partial-failure policy.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, num int) ([]Hit, error)
}
