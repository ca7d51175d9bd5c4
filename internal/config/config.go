// Package config provides configuration management for the CiteRight pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the CiteRight pipeline.
type Config struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// LLM contains language model client settings.
	LLM LLMConfig `mapstructure:"llm"`
	// ArXiv contains arXiv API client settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// Pipeline contains retrieval, scoring and synthesis tuning.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`
	// Namespace is the prefix for all metric names.
	Namespace string `mapstructure:"namespace"`
}

// LLMConfig holds language model client configuration.
type LLMConfig struct {
	// Provider is the LLM provider (openai, anthropic).
	Provider string `mapstructure:"provider"`
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the maximum number of retries for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// Cache contains response cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// CacheConfig holds LLM response cache settings. The cache is a
// least-recently-used cache bounded by entry count, owned by the
// client that wraps it.
type CacheConfig struct {
	// Enabled enables response caching.
	Enabled bool `mapstructure:"enabled"`
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int `mapstructure:"max_entries"`
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (loaded from CITERIGHT_LLM_OPENAI_API_KEY).
	APIKey string `mapstructure:"-"`
	// Model is the model identifier (e.g., "gpt-4-turbo").
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (empty means default).
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic-specific settings.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key (loaded from CITERIGHT_LLM_ANTHROPIC_API_KEY).
	APIKey string `mapstructure:"-"`
	// Model is the Anthropic model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the Anthropic API base URL (for custom endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// ArXivConfig holds arXiv API client configuration.
type ArXivConfig struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// MaxResults is the maximum results per search request.
	MaxResults int `mapstructure:"max_results"`
}

// PipelineConfig holds retrieval, scoring and synthesis tuning.
type PipelineConfig struct {
	// ResultLimit caps the number of papers returned by a run.
	ResultLimit int `mapstructure:"result_limit"`
	// MinScore is the relevance threshold below which non-seed papers
	// are dropped.
	MinScore float64 `mapstructure:"min_score"`
	// AbstractMaxLen bounds abstract length after sentence-aware trimming.
	AbstractMaxLen int `mapstructure:"abstract_max_len"`
	// OverFetchFactor multiplies ResultLimit for the raw search request,
	// compensating for papers lost to threshold filtering.
	OverFetchFactor int `mapstructure:"over_fetch_factor"`
	// Scoring contains relevance scoring parameters.
	Scoring ScoringConfig `mapstructure:"scoring"`
	// Keywords contains keyword derivation parameters.
	Keywords KeywordsConfig `mapstructure:"keywords"`
	// Review contains review synthesis parameters.
	Review ReviewConfig `mapstructure:"review"`
}

// ScoringConfig holds relevance scoring parameters. The defaults are the
// empirically chosen values the scoring algorithm was tuned with.
type ScoringConfig struct {
	// PhraseWindowMin is the smallest sliding-window length used when
	// expanding multi-word keywords.
	PhraseWindowMin int `mapstructure:"phrase_window_min"`
	// PhraseWindowMax is the largest sliding-window length used when
	// expanding multi-word keywords.
	PhraseWindowMax int `mapstructure:"phrase_window_max"`
	// MatchCapPerTerm caps the weighted match contribution of a single term.
	MatchCapPerTerm int `mapstructure:"match_cap_per_term"`
	// TitleWeight multiplies title matches relative to abstract matches.
	TitleWeight int `mapstructure:"title_weight"`
	// Boost compensates for the per-term cap under-scoring papers that
	// match many distinct terms lightly.
	Boost float64 `mapstructure:"boost"`
}

// KeywordsConfig holds keyword derivation parameters.
type KeywordsConfig struct {
	// Temperature is the LLM temperature for keyword derivation.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens is the token budget for the keyword response.
	MaxTokens int `mapstructure:"max_tokens"`
}

// ReviewConfig holds review synthesis parameters.
type ReviewConfig struct {
	// BatchThreshold is the paper count above which synthesis switches
	// to the two-phase summarize-then-synthesize path.
	BatchThreshold int `mapstructure:"batch_threshold"`
	// Temperature is the LLM temperature for review synthesis.
	Temperature float64 `mapstructure:"temperature"`
	// MaxTokens is the token budget for the final review.
	MaxTokens int `mapstructure:"max_tokens"`
	// SummaryMaxTokens is the token budget for each per-paper summary.
	SummaryMaxTokens int `mapstructure:"summary_max_tokens"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CITERIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/citeright")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.LLM.OpenAI.APIKey = os.Getenv("CITERIGHT_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv("CITERIGHT_LLM_ANTHROPIC_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "citeright")

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.cache.enabled", true)
	v.SetDefault("llm.cache.max_entries", 256)
	v.SetDefault("llm.openai.model", "gpt-4-turbo")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")

	// arXiv defaults
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.rate_limit", 3.0)
	v.SetDefault("arxiv.burst_size", 3)
	v.SetDefault("arxiv.max_results", 40)

	// Pipeline defaults
	v.SetDefault("pipeline.result_limit", 20)
	v.SetDefault("pipeline.min_score", 0.05)
	v.SetDefault("pipeline.abstract_max_len", 500)
	v.SetDefault("pipeline.over_fetch_factor", 2)
	v.SetDefault("pipeline.scoring.phrase_window_min", 2)
	v.SetDefault("pipeline.scoring.phrase_window_max", 4)
	v.SetDefault("pipeline.scoring.match_cap_per_term", 4)
	v.SetDefault("pipeline.scoring.title_weight", 3)
	v.SetDefault("pipeline.scoring.boost", 1.5)
	v.SetDefault("pipeline.keywords.temperature", 0.3)
	v.SetDefault("pipeline.keywords.max_tokens", 256)
	v.SetDefault("pipeline.review.batch_threshold", 5)
	v.SetDefault("pipeline.review.temperature", 0.4)
	v.SetDefault("pipeline.review.max_tokens", 2500)
	v.SetDefault("pipeline.review.summary_max_tokens", 400)
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Pipeline.ResultLimit <= 0 {
		return fmt.Errorf("pipeline result_limit must be positive")
	}
	if c.Pipeline.MinScore < 0 || c.Pipeline.MinScore > 1 {
		return fmt.Errorf("pipeline min_score must be in [0,1]")
	}
	if c.Pipeline.AbstractMaxLen <= 0 {
		return fmt.Errorf("pipeline abstract_max_len must be positive")
	}
	if c.Pipeline.OverFetchFactor < 1 {
		return fmt.Errorf("pipeline over_fetch_factor must be at least 1")
	}

	s := c.Pipeline.Scoring
	if s.PhraseWindowMin < 1 || s.PhraseWindowMax < s.PhraseWindowMin {
		return fmt.Errorf("pipeline scoring phrase window bounds are invalid")
	}
	if s.MatchCapPerTerm <= 0 {
		return fmt.Errorf("pipeline scoring match_cap_per_term must be positive")
	}
	if s.TitleWeight <= 0 {
		return fmt.Errorf("pipeline scoring title_weight must be positive")
	}
	if s.Boost <= 0 {
		return fmt.Errorf("pipeline scoring boost must be positive")
	}

	if c.Pipeline.Review.BatchThreshold <= 0 {
		return fmt.Errorf("pipeline review batch_threshold must be positive")
	}

	if c.LLM.Cache.Enabled && c.LLM.Cache.MaxEntries <= 0 {
		return fmt.Errorf("llm cache max_entries must be positive when the cache is enabled")
	}

	// Validate that the configured LLM provider has its required API key set.
	switch strings.ToLower(c.LLM.Provider) {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires CITERIGHT_LLM_OPENAI_API_KEY to be set", c.LLM.Provider)
		}
	case "anthropic":
		if c.LLM.Anthropic.APIKey == "" {
			return fmt.Errorf("LLM provider %q requires CITERIGHT_LLM_ANTHROPIC_API_KEY to be set", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %q", c.LLM.Provider)
	}

	return nil
}
