package logger_test

import (
	"context"
	"testing"

	"mmrag/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGet_ReturnsContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	logger.Info(ctx, "hello", zap.String("k", "v"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "hello", entry.Message)
	require.Equal(t, "v", entry.ContextMap()["k"])
}

func TestWithFields_ScopesSubsequentLines(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	ctx = logger.WithFields(ctx, zap.String("documentID", "doc-1"))

	logger.Warn(ctx, "first")
	logger.Error(ctx, "second")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		require.Equal(t, "doc-1", entry.ContextMap()["documentID"])
	}
}

func TestGet_FallsBackToDefault(t *testing.T) {
	// must not panic without Setup; the default is a nop logger
	logger.Debug(context.Background(), "ignored")
}
