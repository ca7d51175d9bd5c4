package llm

import (
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create a Client.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("openai" or "anthropic").
	Provider string
	// Timeout is the timeout for LLM API calls.
	Timeout time.Duration
	// MaxRetries is the maximum number of retries for failed calls.
	MaxRetries int
	// CacheEnabled enables the bounded LRU response cache.
	CacheEnabled bool
	// CacheMaxEntries is the response cache entry capacity.
	CacheMaxEntries int
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewClient creates a Client based on the configuration. Supports
// "openai" and "anthropic" providers, optionally wrapped in a bounded
// LRU response cache. Returns an error for unsupported or empty
// provider values. The observer may be nil.
func NewClient(cfg FactoryConfig, observer CacheObserver) (Client, error) {
	var client Client

	switch cfg.Provider {
	case "openai":
		client = NewOpenAIClient(cfg.OpenAI, cfg.Timeout, cfg.MaxRetries)
	case "anthropic":
		client = NewAnthropicClient(cfg.Anthropic, cfg.Timeout, cfg.MaxRetries)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}

	if !cfg.CacheEnabled {
		return client, nil
	}

	cached, err := NewCachedClient(client, cfg.CacheMaxEntries, observer)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
