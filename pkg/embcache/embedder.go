package embcache

import (
	"context"
	"fmt"

	"mmrag/pkg/llm"
	"mmrag/pkg/logger"

	"go.uber.org/zap"
)

// Embedder wraps an llm.Embedder with the Redis cache. Document batches are
// partially served from cache; only the misses hit the provider. Cache
// failures degrade to provider calls instead of failing the operation.
type Embedder struct {
	inner llm.Embedder
	cache *Cache
}

// NewEmbedder wraps inner with cache.
func NewEmbedder(inner llm.Embedder, cache *Cache) *Embedder {
	return &Embedder{
		inner: inner,
		cache: cache,
	}
}

// EmbedDocuments serves cached vectors where possible and embeds the rest in
// one provider batch.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
	if len(texts) == 0 {
		return nil, llm.RateLimitStatus{}, nil
	}

	model := e.inner.Model()
	vectors := make([][]float32, len(texts))
	var (
		missTexts   []string
		missIndices []int
	)
	for i, text := range texts {
		vector, found, err := e.cache.Get(ctx, model, text)
		if err != nil {
			logger.Warn(ctx, "embedding cache read failed", zap.Error(err))
		}
		if found {
			vectors[i] = vector

			continue
		}
		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
	}
	if len(missTexts) == 0 {
		return vectors, llm.RateLimitStatus{}, nil
	}

	embedded, rl, err := e.inner.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, rl, fmt.Errorf("could not embed documents: %w", err)
	}
	for i, vector := range embedded {
		vectors[missIndices[i]] = vector
		if err := e.cache.Set(ctx, model, missTexts[i], vector); err != nil {
			logger.Warn(ctx, "embedding cache write failed", zap.Error(err))
		}
	}

	return vectors, rl, nil
}

// EmbedQuery serves the query vector from cache when present.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, llm.RateLimitStatus, error) {
	model := e.inner.Model()
	vector, found, err := e.cache.Get(ctx, model, text)
	if err != nil {
		logger.Warn(ctx, "embedding cache read failed", zap.Error(err))
	}
	if found {
		return vector, llm.RateLimitStatus{}, nil
	}

	vector, rl, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, rl, fmt.Errorf("could not embed query: %w", err)
	}
	if err := e.cache.Set(ctx, model, text, vector); err != nil {
		logger.Warn(ctx, "embedding cache write failed", zap.Error(err))
	}

	return vector, rl, nil
}

// Model returns the wrapped embedder's model name.
func (e *Embedder) Model() string {
	return e.inner.Model()
}

// Ensure Embedder conforms to the llm.Embedder interface at compile time.
var _ llm.Embedder = (*Embedder)(nil)
