package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient is a scripted Client for cache and factory tests.
type stubClient struct {
	provider string
	model    string
	calls    int
	err      error
}

func (s *stubClient) Complete(_ context.Context, req Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Response{
		Content:      fmt.Sprintf("response %d for %s", s.calls, req.Prompt),
		Model:        s.model,
		InputTokens:  10,
		OutputTokens: 20,
	}, nil
}

func (s *stubClient) Provider() string { return s.provider }
func (s *stubClient) Model() string    { return s.model }

// countingObserver records hit/miss notifications.
type countingObserver struct {
	hits   int
	misses int
}

func (o *countingObserver) RecordCacheHit()  { o.hits++ }
func (o *countingObserver) RecordCacheMiss() { o.misses++ }

func TestCachedClientHitAndMiss(t *testing.T) {
	t.Parallel()

	inner := &stubClient{provider: "openai", model: "gpt-4-turbo"}
	observer := &countingObserver{}
	cached, err := NewCachedClient(inner, 10, observer)
	require.NoError(t, err)

	req := Request{Prompt: "derive keywords", Temperature: 0.3, MaxTokens: 256}

	first, err := cached.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 0, observer.hits)
	assert.Equal(t, 1, observer.misses)

	second, err := cached.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second identical request should not reach the provider")
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)
}

func TestCachedClientKeyFields(t *testing.T) {
	t.Parallel()

	inner := &stubClient{provider: "openai", model: "gpt-4-turbo"}
	cached, err := NewCachedClient(inner, 10, nil)
	require.NoError(t, err)

	base := Request{Prompt: "summarize", Temperature: 0.3, MaxTokens: 256}

	variants := []Request{
		base,
		{Prompt: "summarize more", Temperature: 0.3, MaxTokens: 256},
		{Prompt: "summarize", Temperature: 0.7, MaxTokens: 256},
		{Prompt: "summarize", Temperature: 0.3, MaxTokens: 512},
	}
	for _, req := range variants {
		_, err := cached.Complete(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, len(variants), inner.calls, "each distinct request should reach the provider")
	assert.Equal(t, len(variants), cached.Len())
}

func TestCachedClientEviction(t *testing.T) {
	t.Parallel()

	inner := &stubClient{provider: "openai", model: "gpt-4-turbo"}
	cached, err := NewCachedClient(inner, 2, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req := Request{Prompt: fmt.Sprintf("prompt %d", i), MaxTokens: 64}
		_, err := cached.Complete(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cached.Len())

	// The oldest entry was evicted; re-requesting it hits the provider.
	_, err = cached.Complete(context.Background(), Request{Prompt: "prompt 0", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls)
}

func TestCachedClientDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	inner := &stubClient{provider: "openai", model: "gpt-4-turbo", err: errors.New("provider down")}
	cached, err := NewCachedClient(inner, 10, nil)
	require.NoError(t, err)

	req := Request{Prompt: "derive keywords", MaxTokens: 64}

	_, err = cached.Complete(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 0, cached.Len())

	inner.err = nil
	resp, err := cached.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedClientDelegatesIdentity(t *testing.T) {
	t.Parallel()

	inner := &stubClient{provider: "anthropic", model: "claude-3-sonnet"}
	cached, err := NewCachedClient(inner, 10, nil)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cached.Provider())
	assert.Equal(t, "claude-3-sonnet", cached.Model())
}

func TestNewCachedClientRejectsInvalidCapacity(t *testing.T) {
	t.Parallel()

	_, err := NewCachedClient(&stubClient{}, 0, nil)
	require.Error(t, err)
}
