// Package papersources provides clients for searching academic paper databases.
//
// The package defines the PaperSource abstraction the aggregation layer
// retrieves candidate papers through, plus the shared rate-limited HTTP
// client the concrete sources are built on. The pipeline currently ships
// one source (arXiv); the interface keeps retrieval swappable and makes
// the aggregator testable with a stub.
//
// Example usage:
//
//	source := arxiv.New(cfg)
//	result, err := source.Search(ctx, papersources.SearchParams{
//		Query:      `all:"graph neural networks" OR all:"molecule generation"`,
//		MaxResults: 40,
//	})
package papersources

import (
	"context"
	"time"

	"github.com/citeright/citeright/internal/domain"
)

// SearchParams defines the parameters for searching academic papers.
type SearchParams struct {
	// Query is the search query string (required). The format is
	// source-specific; the arXiv client accepts the arXiv API query
	// syntax including field prefixes and boolean operators.
	Query string

	// MaxResults limits the number of papers returned in a single
	// request. A value of 0 uses the source's default limit.
	MaxResults int

	// Start specifies the starting position for paginated results.
	Start int
}

// SearchResult contains the results from a paper source search operation.
type SearchResult struct {
	// Papers contains the papers returned by the search, in the
	// source's result order. May be empty when nothing matches.
	Papers []*domain.Paper

	// TotalResults is the total number of papers matching the query
	// regardless of pagination, as reported by the source API. May be
	// an estimate for large result sets.
	TotalResults int

	// SearchDuration is the time taken to execute the search,
	// including network latency and response parsing.
	SearchDuration time.Duration
}

// PaperSource is the interface retrieval clients implement.
type PaperSource interface {
	// Search queries the source for papers matching the given
	// parameters. The context should be used for cancellation and
	// deadline propagation.
	//
	// Implementations should:
	//   - Respect context cancellation
	//   - Apply rate limiting as needed
	//   - Transform source-specific responses to domain.Paper
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves a specific paper by its source-specific
	// identifier. Returns domain.ErrNotFound (wrapped) when the paper
	// does not exist.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// Name returns a human-readable name for this paper source.
	// Used for logging and metrics.
	Name() string
}
