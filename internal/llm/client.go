// Package llm provides text-completion clients for the CiteRight pipeline.
//
// The pipeline treats the language model as a plain text-completion
// service: callers build full prompt strings (keyword derivation, paper
// summaries, review synthesis) and receive raw text back. This package
// defines the unified Client interface, HTTP providers for OpenAI and
// Anthropic, and an optional bounded LRU response cache.
//
// Example usage:
//
//	client, err := llm.NewClient(cfg)
//	resp, err := client.Complete(ctx, llm.Request{
//		Prompt:      "Generate 5-7 search keywords for ...",
//		Temperature: 0.3,
//		MaxTokens:   256,
//	})
package llm

import (
	"context"
)

// Request contains the parameters for a single text completion.
type Request struct {
	// Prompt is the full prompt text sent to the model.
	Prompt string

	// Temperature controls randomness (0-1).
	Temperature float64

	// MaxTokens is the maximum number of tokens in the response.
	// A value of 0 uses the provider's default budget.
	MaxTokens int
}

// Response contains the completion text and usage metadata.
type Response struct {
	// Content is the generated text.
	Content string

	// Model is the model identifier that produced the response.
	Model string

	// InputTokens is the number of prompt tokens consumed.
	InputTokens int

	// OutputTokens is the number of completion tokens produced.
	OutputTokens int
}

// Client defines the interface for text-completion providers.
//
// Implementations should handle provider-specific API calls, response
// parsing, and transient-error retries while conforming to this
// unified interface.
type Client interface {
	// Complete sends the prompt to the model and returns the generated
	// text. The context should be used for cancellation and deadline
	// propagation.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the name of the LLM provider (e.g., "openai", "anthropic").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}
