// Package observability provides logging and metrics support for the
// CiteRight pipeline.
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stderr",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("run_id", runID).Msg("pipeline run started")
//
// Add pipeline context to a logger:
//
//	logger = observability.WithRunContext(logger, runID)
//	logger = observability.WithStageContext(logger, "aggregate")
//
// # Metrics
//
// Initialize metrics and record pipeline events:
//
//	metrics := observability.NewMetrics("citeright")
//	metrics.RecordRunStarted()
//	metrics.RecordLLMRequest("synthesize", "gpt-4-turbo", 2.3, 1200, 800)
//
// # Standard Fields
//
// Common fields used across the pipeline:
//
//   - run_id: pipeline run identifier
//   - stage: pipeline stage (keywords, aggregate, synthesize)
//   - keyword: search keyword
//   - paper_id: paper identifier
//   - seed_id: seed paper identifier
//   - source: paper source name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
