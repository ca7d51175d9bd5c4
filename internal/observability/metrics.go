package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the CiteRight pipeline.
// Metrics are organized by subsystem: runs, keywords, papers, sources,
// and LLM operations. All counters and histograms are registered via
// promauto for automatic registration with the default registry.
type Metrics struct {
	// RunsStarted counts the total number of pipeline runs initiated.
	RunsStarted prometheus.Counter

	// RunsCompleted counts runs that finished with a synthesized review.
	RunsCompleted prometheus.Counter

	// RunsNoPapers counts runs that terminated because no papers were found.
	RunsNoPapers prometheus.Counter

	// RunsFailed counts runs that ended in the error state.
	RunsFailed prometheus.Counter

	// RunDuration observes the end-to-end duration of runs in seconds.
	RunDuration prometheus.Histogram

	// StageDuration observes per-stage duration in seconds, labeled by stage.
	StageDuration *prometheus.HistogramVec

	// KeywordsPerRun observes the distribution of derived keyword counts.
	KeywordsPerRun prometheus.Histogram

	// PapersRetrieved counts raw records returned by keyword searches.
	PapersRetrieved prometheus.Counter

	// PapersDuplicate counts duplicate records dropped during aggregation.
	PapersDuplicate prometheus.Counter

	// PapersFiltered counts non-seed records dropped by threshold filtering.
	PapersFiltered prometheus.Counter

	// PapersPerRun observes the distribution of final paper counts per run.
	PapersPerRun prometheus.Histogram

	// SeedFetchFailures counts seed paper fetches that failed and were skipped.
	SeedFetchFailures prometheus.Counter

	// SourceRequestsTotal counts requests to paper source APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed requests to paper source APIs.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes paper source request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// LLMRequestsTotal counts LLM API requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed LLM API requests, labeled by operation and model.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes LLM API request duration in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMTokensUsed counts tokens consumed by LLM operations, labeled by
	// operation, model, and token type (input, output).
	LLMTokensUsed *prometheus.CounterVec

	// LLMCacheHits counts LLM responses served from the response cache.
	LLMCacheHits prometheus.Counter

	// LLMCacheMisses counts LLM requests that missed the response cache.
	LLMCacheMisses prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Runs
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of pipeline runs started",
		}),
		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total number of pipeline runs completed with a review",
		}),
		RunsNoPapers: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_no_papers_total",
			Help:      "Total number of pipeline runs that found no papers",
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of pipeline runs that failed",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds by stage",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		// Keywords
		KeywordsPerRun: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "keywords_per_run",
			Help:      "Number of keywords derived per run",
			Buckets:   []float64{1, 2, 3, 5, 7, 10, 15},
		}),

		// Papers
		PapersRetrieved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_retrieved_total",
			Help:      "Total number of raw paper records retrieved from searches",
		}),
		PapersDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_duplicate_total",
			Help:      "Total number of duplicate paper records dropped",
		}),
		PapersFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_filtered_total",
			Help:      "Total number of papers dropped by relevance threshold filtering",
		}),
		PapersPerRun: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_run",
			Help:      "Number of papers in the final ranked set per run",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		}),
		SeedFetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seed_fetch_failures_total",
			Help:      "Total number of seed paper fetches that failed and were skipped",
		}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to paper sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to paper sources",
		}, []string{"source", "endpoint"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to paper sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),

		// LLM
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed LLM requests by operation",
		}, []string{"operation", "model"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of LLM requests in seconds by operation",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation", "model"}),
		LLMTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens consumed by LLM operations",
		}, []string{"operation", "model", "type"}),
		LLMCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cache_hits_total",
			Help:      "Total number of LLM responses served from the cache",
		}),
		LLMCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cache_misses_total",
			Help:      "Total number of LLM requests that missed the cache",
		}),
	}
}

// RecordRunStarted increments the run started counter.
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

// RecordRunCompleted records a completed run and its duration.
func (m *Metrics) RecordRunCompleted(durationSeconds float64) {
	m.RunsCompleted.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordRunNoPapers records a run that terminated with no papers.
func (m *Metrics) RecordRunNoPapers(durationSeconds float64) {
	m.RunsNoPapers.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordRunFailed records a failed run and its duration.
func (m *Metrics) RecordRunFailed(durationSeconds float64) {
	m.RunsFailed.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordStageDuration records the duration of a single pipeline stage.
func (m *Metrics) RecordStageDuration(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordKeywordsDerived records the keyword count for a run.
func (m *Metrics) RecordKeywordsDerived(count int) {
	m.KeywordsPerRun.Observe(float64(count))
}

// RecordAggregation records the paper counts observed during one aggregation.
func (m *Metrics) RecordAggregation(retrieved, duplicates, filtered, final int) {
	m.PapersRetrieved.Add(float64(retrieved))
	m.PapersDuplicate.Add(float64(duplicates))
	m.PapersFiltered.Add(float64(filtered))
	m.PapersPerRun.Observe(float64(final))
}

// RecordSeedFetchFailure increments the seed fetch failure counter.
func (m *Metrics) RecordSeedFetchFailure() {
	m.SeedFetchFailures.Inc()
}

// RecordSourceRequest records a request to a paper source API.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64, failed bool) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
	if failed {
		m.SourceRequestsFailed.WithLabelValues(source, endpoint).Inc()
	}
}

// RecordLLMRequest records a successful LLM request with its token usage.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMTokensUsed.WithLabelValues(operation, model, "input").Add(float64(inputTokens))
	m.LLMTokensUsed.WithLabelValues(operation, model, "output").Add(float64(outputTokens))
}

// RecordLLMRequestFailed records a failed LLM request.
func (m *Metrics) RecordLLMRequestFailed(operation, model string) {
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestsFailed.WithLabelValues(operation, model).Inc()
}

// RecordCacheHit increments the LLM cache hit counter.
func (m *Metrics) RecordCacheHit() {
	m.LLMCacheHits.Inc()
}

// RecordCacheMiss increments the LLM cache miss counter.
func (m *Metrics) RecordCacheMiss() {
	m.LLMCacheMisses.Inc()
}
