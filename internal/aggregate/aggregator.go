// Package aggregate merges keyword-search results with explicitly
// requested seed papers into a deduplicated, scored, ranked paper set.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citeright/citeright/internal/domain"
	"github.com/citeright/citeright/internal/observability"
	"github.com/citeright/citeright/internal/papersources"
	"github.com/citeright/citeright/internal/relevance"
)

const (
	// DefaultResultLimit caps the ranked result set.
	DefaultResultLimit = 20

	// DefaultMinScore is the relevance threshold non-seed papers must
	// reach to stay in the result set.
	DefaultMinScore = 0.05

	// DefaultAbstractMaxLen bounds the length abstracts are trimmed to.
	DefaultAbstractMaxLen = 500

	// DefaultOverFetchFactor over-fetches raw records to compensate for
	// papers lost to deduplication and threshold filtering.
	DefaultOverFetchFactor = 2
)

// sentenceCutRatio is the fraction of the abstract bound a sentence
// boundary must fall after to be used as the cut point.
const sentenceCutRatio = 0.7

// Config holds aggregation parameters.
type Config struct {
	ResultLimit     int
	MinScore        float64
	AbstractMaxLen  int
	OverFetchFactor int
}

func (c *Config) applyDefaults() {
	if c.ResultLimit == 0 {
		c.ResultLimit = DefaultResultLimit
	}
	if c.MinScore == 0 {
		c.MinScore = DefaultMinScore
	}
	if c.AbstractMaxLen == 0 {
		c.AbstractMaxLen = DefaultAbstractMaxLen
	}
	if c.OverFetchFactor == 0 {
		c.OverFetchFactor = DefaultOverFetchFactor
	}
}

// Observer receives retrieval events for metrics. Implemented by the
// observability metrics; nil observers are allowed.
type Observer interface {
	RecordSourceRequest(source, endpoint string, durationSeconds float64, failed bool)
	RecordSeedFetchFailure()
}

// Result is the outcome of one aggregation. The tagged fields let
// callers distinguish "the search source was down" from "the search
// worked but nothing relevant was found": RetrievalFailed reports the
// former, an empty Papers slice with RetrievalFailed false the latter.
type Result struct {
	// Papers is the ranked result set, at most ResultLimit long.
	Papers []*domain.Paper

	// RetrievalFailed is true when the combined keyword search itself
	// failed. Papers is always empty in that case.
	RetrievalFailed bool

	// RetrievalErr describes the search failure when RetrievalFailed.
	// It matches domain.ErrRetrievalFailed with errors.Is.
	RetrievalErr error

	// FailedSeeds lists seed identifiers that could not be fetched.
	// Failed seeds are skipped, never fatal.
	FailedSeeds []string

	// Retrieved is the number of raw records the keyword search returned.
	Retrieved int

	// Duplicates is the number of raw records dropped as duplicates.
	Duplicates int

	// FilteredOut is the number of papers dropped by the relevance
	// threshold.
	FilteredOut int
}

// Aggregator retrieves, deduplicates, scores, filters and ranks
// candidate papers for one pipeline run.
type Aggregator struct {
	source   papersources.PaperSource
	scorer   *relevance.Scorer
	config   Config
	observer Observer
	logger   zerolog.Logger
}

// NewAggregator creates an Aggregator over the given source and scorer.
// The observer may be nil.
func NewAggregator(source papersources.PaperSource, scorer *relevance.Scorer, cfg Config, observer Observer, logger zerolog.Logger) *Aggregator {
	cfg.applyDefaults()
	return &Aggregator{
		source:   source,
		scorer:   scorer,
		config:   cfg,
		observer: observer,
		logger:   logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate runs the full retrieval flow for the given keyword set and
// optional seed identifiers. It never returns an error: a total search
// failure is reported through the RetrievalFailed tag and individual
// seed fetch failures are skipped and listed in FailedSeeds.
func (a *Aggregator) Aggregate(ctx context.Context, keywords, seedIDs []string) Result {
	var result Result

	query := buildQuery(keywords)
	searchLogger := observability.WithSearchContext(a.logger, a.source.Name(), query)

	searchStart := time.Now()
	searchResult, err := a.source.Search(ctx, papersources.SearchParams{
		Query:      query,
		MaxResults: a.config.OverFetchFactor * a.config.ResultLimit,
	})
	if a.observer != nil {
		a.observer.RecordSourceRequest(a.source.Name(), "search", time.Since(searchStart).Seconds(), err != nil)
	}
	if err != nil {
		retrievalErr := fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
		searchLogger.Error().Err(retrievalErr).Msg("keyword search failed")
		result.RetrievalFailed = true
		result.RetrievalErr = retrievalErr
		return result
	}

	// Deduplicate by identifier, preserving the source's relevance order.
	seen := make(map[string]struct{})
	papers := make([]*domain.Paper, 0, len(searchResult.Papers))
	for _, paper := range searchResult.Papers {
		result.Retrieved++
		if _, ok := seen[paper.ID]; ok {
			result.Duplicates++
			continue
		}
		seen[paper.ID] = struct{}{}
		paper.Abstract = TrimAbstract(paper.Abstract, a.config.AbstractMaxLen)
		papers = append(papers, paper)
	}

	papers = a.appendSeeds(ctx, papers, seen, seedIDs, &result)

	a.scorer.Score(papers, keywords)

	// Threshold filter; seeds are exempt.
	kept := papers[:0]
	for _, paper := range papers {
		if paper.IsSeed || paper.RelevanceScore >= a.config.MinScore {
			kept = append(kept, paper)
			continue
		}
		result.FilteredOut++
	}

	// Stable so equal scores keep their insertion order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})

	if len(kept) > a.config.ResultLimit {
		kept = kept[:a.config.ResultLimit]
	}

	result.Papers = kept
	a.logger.Info().
		Int("retrieved", result.Retrieved).
		Int("duplicates", result.Duplicates).
		Int("filtered_out", result.FilteredOut).
		Int("final", len(kept)).
		Msg("aggregation complete")
	return result
}

// appendSeeds fetches each seed identifier one at a time and appends it
// marked as a seed. A seed already present from the keyword search is
// not duplicated; the existing record gains the seed flag instead.
func (a *Aggregator) appendSeeds(ctx context.Context, papers []*domain.Paper, seen map[string]struct{}, seedIDs []string, result *Result) []*domain.Paper {
	for _, rawID := range seedIDs {
		seedID := domain.NormalizeSeedID(rawID)
		if seedID == "" {
			continue
		}

		fetchStart := time.Now()
		paper, err := a.source.GetByID(ctx, seedID)
		if a.observer != nil {
			a.observer.RecordSourceRequest(a.source.Name(), "get_by_id", time.Since(fetchStart).Seconds(), err != nil)
		}
		if err != nil {
			seedErr := &domain.SeedFetchError{SeedID: seedID, Cause: err}
			seedLogger := observability.WithPaperContext(a.logger, seedID)
			seedLogger.Warn().Err(seedErr).Msg("seed paper fetch failed, skipping")
			if a.observer != nil {
				a.observer.RecordSeedFetchFailure()
			}
			result.FailedSeeds = append(result.FailedSeeds, seedID)
			continue
		}

		if _, ok := seen[paper.ID]; ok {
			for _, existing := range papers {
				if existing.ID == paper.ID {
					existing.IsSeed = true
					existing.RelevanceScore = 1.0
					break
				}
			}
			continue
		}

		seen[paper.ID] = struct{}{}
		paper.IsSeed = true
		paper.RelevanceScore = 1.0
		paper.Abstract = TrimAbstract(paper.Abstract, a.config.AbstractMaxLen)
		papers = append(papers, paper)
	}
	return papers
}

// buildQuery joins the keyword set into one combined OR-query. Each
// keyword is quoted to bias the source toward phrase matches.
func buildQuery(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		quoted = append(quoted, fmt.Sprintf(`all:%q`, keyword))
	}
	return strings.Join(quoted, " OR ")
}

// TrimAbstract bounds an abstract to maxLen characters, cutting at the
// last sentence boundary when one falls late enough in the text.
// Abstracts already within the bound are returned unchanged, so
// trimming is idempotent for bounded input. When no sentence boundary
// falls after sentenceCutRatio of the bound the text is hard-truncated
// with an ellipsis marker.
func TrimAbstract(abstract string, maxLen int) string {
	runes := []rune(abstract)
	if len(runes) <= maxLen {
		return abstract
	}

	cut := runes[:maxLen]
	if idx := lastIndexRune(cut, '.'); idx >= 0 && float64(idx+1) >= sentenceCutRatio*float64(maxLen) {
		return string(cut[:idx+1])
	}
	return strings.TrimSpace(string(cut)) + "..."
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
