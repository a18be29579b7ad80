// Package embcache caches embedding vectors in Redis so byte-identical
// chunk texts and repeated queries skip the provider round trip. Keys are
// scoped by embedding model, since vectors from different models are not
// interchangeable.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores embedding vectors keyed by model and text hash.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a Cache. A zero ttl means entries never expire.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

func key(model, text string) string {
	sum := sha256.Sum256([]byte(text))

	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for the text, or found=false on a miss.
func (c *Cache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, key(model, text)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("could not read embedding from cache: %w", err)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, false, fmt.Errorf("could not decode cached embedding: %w", err)
	}

	return vector, true, nil
}

// Set stores the vector for the text.
func (c *Cache) Set(ctx context.Context, model, text string, vector []float32) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("could not encode embedding: %w", err)
	}

	if err := c.client.Set(ctx, key(model, text), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("could not write embedding to cache: %w", err)
	}

	return nil
}
