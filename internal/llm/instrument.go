package llm

import (
	"context"
	"time"
)

// RequestObserver receives completion outcomes for metrics. Implemented
// by the observability metrics.
type RequestObserver interface {
	RecordLLMRequest(operation, model string, durationSeconds float64, inputTokens, outputTokens int)
	RecordLLMRequestFailed(operation, model string)
}

// InstrumentedClient wraps a Client and reports every completion to a
// RequestObserver under a fixed operation label. Each pipeline stage
// wraps the shared client with its own label ("keywords", "review") so
// token usage is attributable per operation.
type InstrumentedClient struct {
	inner     Client
	observer  RequestObserver
	operation string
}

// Instrument wraps client with request metrics for the given operation.
// A nil observer returns the client unchanged.
func Instrument(client Client, observer RequestObserver, operation string) Client {
	if observer == nil {
		return client
	}
	return &InstrumentedClient{
		inner:     client,
		observer:  observer,
		operation: operation,
	}
}

// Complete delegates to the wrapped client and records the outcome.
func (c *InstrumentedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		c.observer.RecordLLMRequestFailed(c.operation, c.inner.Model())
		return nil, err
	}
	c.observer.RecordLLMRequest(c.operation, resp.Model, time.Since(start).Seconds(), resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

// Provider returns the wrapped client's provider name.
func (c *InstrumentedClient) Provider() string {
	return c.inner.Provider()
}

// Model returns the wrapped client's model identifier.
func (c *InstrumentedClient) Model() string {
	return c.inner.Model()
}
