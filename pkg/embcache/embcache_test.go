package embcache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mmrag/pkg/embcache"
	"mmrag/pkg/llm"
	mockllm "mmrag/pkg/llm/mock"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379"},
			WaitingFor:   wait.ForListeningPort("6379"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestCache_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := embcache.New(setupTestRedis(t), time.Minute)

	// miss
	_, found, err := cache.Get(ctx, "model-a", "some text")
	require.NoError(t, err)
	require.False(t, found)

	// set and hit
	require.NoError(t, cache.Set(ctx, "model-a", "some text", []float32{0.1, 0.2}))
	vector, found, err := cache.Get(ctx, "model-a", "some text")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []float32{0.1, 0.2}, vector)

	// same text under another model stays a miss
	_, found, err = cache.Get(ctx, "model-b", "some text")
	require.NoError(t, err)
	require.False(t, found)
}

func TestEmbedder_EmbedDocuments_PartialHit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := embcache.New(setupTestRedis(t), time.Minute)

	ctrl := gomock.NewController(t)
	inner := mockllm.NewMockEmbedder(ctrl)
	inner.EXPECT().Model().Return("model-a").AnyTimes()

	// warm the cache for "beta" only
	require.NoError(t, cache.Set(ctx, "model-a", "beta", []float32{0.5}))

	inner.EXPECT().EmbedDocuments(gomock.Any(), []string{"alpha", "gamma"}).
		Return([][]float32{{0.1}, {0.9}}, llm.RateLimitStatus{}, nil)

	e := embcache.NewEmbedder(inner, cache)
	vectors, _, err := e.EmbedDocuments(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{0.1}, {0.5}, {0.9}}, vectors)

	// second call is served fully from cache, no provider call expected
	vectors, _, err = e.EmbedDocuments(ctx, []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{0.1}, {0.5}, {0.9}}, vectors)
}

func TestEmbedder_EmbedQuery_CachesResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := embcache.New(setupTestRedis(t), time.Minute)

	ctrl := gomock.NewController(t)
	inner := mockllm.NewMockEmbedder(ctrl)
	inner.EXPECT().Model().Return("model-a").AnyTimes()
	inner.EXPECT().EmbedQuery(gomock.Any(), "question").
		Return([]float32{0.7}, llm.RateLimitStatus{}, nil)

	e := embcache.NewEmbedder(inner, cache)
	vector, _, err := e.EmbedQuery(ctx, "question")
	require.NoError(t, err)
	require.Equal(t, []float32{0.7}, vector)

	// cached on the second call
	vector, _, err = e.EmbedQuery(ctx, "question")
	require.NoError(t, err)
	require.Equal(t, []float32{0.7}, vector)
}
