package llm

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheObserver receives cache hit/miss notifications. Implemented by
// the observability metrics; nil observers are allowed.
type CacheObserver interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// CachedClient wraps a Client with a least-recently-used response cache
// bounded by entry count. The cache is owned by this wrapper, not a
// process-wide singleton, so its lifetime and size are explicit.
//
// Responses are keyed by a hash of (prompt, model, temperature, max
// tokens); two requests differing in any of those fields never share an
// entry. Only successful completions are cached.
type CachedClient struct {
	inner    Client
	cache    *lru.Cache[string, Response]
	observer CacheObserver
}

// NewCachedClient creates a CachedClient with the given entry capacity.
// The observer may be nil.
func NewCachedClient(inner Client, maxEntries int, observer CacheObserver) (*CachedClient, error) {
	cache, err := lru.New[string, Response](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}
	return &CachedClient{
		inner:    inner,
		cache:    cache,
		observer: observer,
	}, nil
}

// Complete returns a cached response when one exists for the request
// key, otherwise delegates to the wrapped client and caches the result.
func (c *CachedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	key := cacheKey(req, c.inner.Model())

	if cached, ok := c.cache.Get(key); ok {
		if c.observer != nil {
			c.observer.RecordCacheHit()
		}
		resp := cached
		return &resp, nil
	}

	if c.observer != nil {
		c.observer.RecordCacheMiss()
	}

	resp, err := c.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, *resp)
	return resp, nil
}

// Provider returns the wrapped client's provider name.
func (c *CachedClient) Provider() string {
	return c.inner.Provider()
}

// Model returns the wrapped client's model identifier.
func (c *CachedClient) Model() string {
	return c.inner.Model()
}

// Len returns the current number of cached responses.
func (c *CachedClient) Len() int {
	return c.cache.Len()
}

// cacheKey computes a deterministic SHA-256 key for a completion request.
func cacheKey(req Request, model string) string {
	raw := fmt.Sprintf("%s|%s|%.4f|%d", req.Prompt, model, req.Temperature, req.MaxTokens)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", hash)
}
