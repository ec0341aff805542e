package embedding

import (
	"context"
	"sync/atomic"
)

// CachedEmbedder memoizes another embedder through an LRU Cache. A failed
// embedding is never cached; the error propagates and a later call retries.
// Hit and miss counters make cache behavior observable in tests and logs.
type CachedEmbedder struct {
	inner  Embedder
	cache  *Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEmbedder wraps inner with an LRU cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: NewCache(capacity),
	}
}

// Embed returns the cached vector for text, computing and caching it on miss.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		e.hits.Add(1)
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.misses.Add(1)
	e.cache.Set(text, vec)
	return vec, nil
}

// EmbedBatch embeds each text through the cache.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (e *CachedEmbedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close closes the wrapped embedder.
func (e *CachedEmbedder) Close() error {
	return e.inner.Close()
}

// Hits returns the number of cache hits served so far.
func (e *CachedEmbedder) Hits() int64 { return e.hits.Load() }

// Misses returns the number of computed (uncached) embeddings so far.
func (e *CachedEmbedder) Misses() int64 { return e.misses.Load() }
