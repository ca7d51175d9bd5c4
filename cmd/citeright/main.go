// Package main is the entry point for the citeright CLI: it derives
// search keywords from a research title and problem statement, retrieves
// and ranks candidate papers from arXiv, and writes a synthesized
// literature review to stdout.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/citeright/citeright/internal/aggregate"
	"github.com/citeright/citeright/internal/config"
	"github.com/citeright/citeright/internal/keywords"
	"github.com/citeright/citeright/internal/llm"
	"github.com/citeright/citeright/internal/observability"
	"github.com/citeright/citeright/internal/papersources/arxiv"
	"github.com/citeright/citeright/internal/pipeline"
	"github.com/citeright/citeright/internal/relevance"
	"github.com/citeright/citeright/internal/review"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagTitle   string
	flagProblem string
	flagSeeds   []string
)

var rootCmd = &cobra.Command{
	Use:     "citeright",
	Short:   "Generate a literature review draft from a research topic",
	Version: version,
	Long: `citeright assembles a literature-review draft from a research title and
problem statement. It derives search keywords with a language model,
retrieves candidate papers from arXiv, ranks them by relevance, and
synthesizes a structured review.

Progress is reported on stderr; the review text is written to stdout.`,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagTitle, "title", "", "research paper title (required)")
	rootCmd.Flags().StringVar(&flagProblem, "problem", "", "problem statement or research notes (required)")
	rootCmd.Flags().StringSliceVar(&flagSeeds, "seed", nil, "seed paper arXiv ID or URL (repeatable)")
	_ = rootCmd.MarkFlagRequired("title")
	_ = rootCmd.MarkFlagRequired("problem")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Interface-typed observers stay nil when metrics are disabled.
	var cacheObserver llm.CacheObserver
	var requestObserver llm.RequestObserver
	var sourceObserver aggregate.Observer
	if metrics != nil {
		cacheObserver = metrics
		requestObserver = metrics
		sourceObserver = metrics
	}

	llmClient, err := llm.NewClient(llm.FactoryConfig{
		Provider:        cfg.LLM.Provider,
		Timeout:         cfg.LLM.Timeout,
		MaxRetries:      cfg.LLM.MaxRetries,
		CacheEnabled:    cfg.LLM.Cache.Enabled,
		CacheMaxEntries: cfg.LLM.Cache.MaxEntries,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.LLM.Anthropic.APIKey,
			Model:   cfg.LLM.Anthropic.Model,
			BaseURL: cfg.LLM.Anthropic.BaseURL,
		},
	}, cacheObserver)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	source := arxiv.New(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		BurstSize:  cfg.ArXiv.BurstSize,
		MaxResults: cfg.ArXiv.MaxResults,
	})

	deriver := keywords.NewDeriver(
		llm.Instrument(llmClient, requestObserver, "keywords"),
		keywords.Config{
			Temperature: cfg.Pipeline.Keywords.Temperature,
			MaxTokens:   cfg.Pipeline.Keywords.MaxTokens,
		},
		logger,
	)

	scorer := relevance.NewScorer(relevance.Config{
		PhraseWindowMin: cfg.Pipeline.Scoring.PhraseWindowMin,
		PhraseWindowMax: cfg.Pipeline.Scoring.PhraseWindowMax,
		MatchCapPerTerm: cfg.Pipeline.Scoring.MatchCapPerTerm,
		TitleWeight:     cfg.Pipeline.Scoring.TitleWeight,
		Boost:           cfg.Pipeline.Scoring.Boost,
	})

	aggregator := aggregate.NewAggregator(source, scorer, aggregate.Config{
		ResultLimit:     cfg.Pipeline.ResultLimit,
		MinScore:        cfg.Pipeline.MinScore,
		AbstractMaxLen:  cfg.Pipeline.AbstractMaxLen,
		OverFetchFactor: cfg.Pipeline.OverFetchFactor,
	}, sourceObserver, logger)

	synthesizer := review.NewSynthesizer(
		llm.Instrument(llmClient, requestObserver, "review"),
		review.Config{
			BatchThreshold:   cfg.Pipeline.Review.BatchThreshold,
			Temperature:      cfg.Pipeline.Review.Temperature,
			MaxTokens:        cfg.Pipeline.Review.MaxTokens,
			SummaryMaxTokens: cfg.Pipeline.Review.SummaryMaxTokens,
		},
		logger,
	)

	orchestrator := pipeline.NewOrchestrator(deriver, aggregator, synthesizer, metrics, logger)

	snapshot := orchestrator.Process(context.Background(), pipeline.Request{
		Title:   flagTitle,
		Problem: flagProblem,
		SeedIDs: flagSeeds,
	}, func(s pipeline.Snapshot) {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", s.Progress, s.Message)
	})

	if snapshot.Status == pipeline.StatusError {
		return fmt.Errorf("pipeline failed: %s", snapshot.Err)
	}

	// Both completed and no_papers carry their outcome in the review
	// body.
	fmt.Fprintln(cmd.OutOrStdout(), snapshot.Review)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
