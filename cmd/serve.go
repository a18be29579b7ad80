package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"mmrag/internal/api"
	"mmrag/internal/api/handler/v1handler"
	"mmrag/internal/config"
	"mmrag/internal/ingest"
	"mmrag/internal/query"
	"mmrag/internal/worker"
	"mmrag/pkg/chunker"
	"mmrag/pkg/embcache"
	"mmrag/pkg/extract"
	"mmrag/pkg/llm"
	"mmrag/pkg/llm/gemini"
	"mmrag/pkg/llm/openai"
	"mmrag/pkg/logger"
	"mmrag/pkg/vectorstore"
	"mmrag/pkg/vectorstore/memory"
	"mmrag/pkg/vectorstore/weaviate"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getVectorStore selects the chunk index backend: Weaviate when a host is
// configured, otherwise the in-process store for development.
func getVectorStore(ctx context.Context, cfg *config.Config) vectorstore.Store {
	var store vectorstore.Store
	if cfg.Weaviate.Host != "" {
		var err error
		store, err = weaviate.New(weaviate.Options{
			Host:   cfg.Weaviate.Host,
			Scheme: cfg.Weaviate.Scheme,
			APIKey: cfg.Weaviate.APIKey,
			Class:  cfg.Weaviate.Class,
		})
		if err != nil {
			logger.Fatal(ctx, "could not create weaviate client", zap.Error(err))
		}
	} else {
		logger.Warn(ctx, "no weaviate host configured, using in-memory vector store")
		store = memory.New()
	}

	if err := store.Init(ctx); err != nil {
		logger.Fatal(ctx, "could not initialize vector store", zap.Error(err))
	}

	return store
}

// providers bundles the LLM clients the pipeline runs on.
type providers struct {
	embedder    llm.Embedder
	generator   llm.Generator
	ocr         llm.OCR
	transcriber llm.Transcriber
}

// getProviders wires the Gemini and OpenAI clients according to the
// configured provider selection and wraps the embedder with the Redis cache
// when one is configured.
func getProviders(ctx context.Context, cfg *config.Config) providers {
	geminiClient, err := gemini.New(ctx, gemini.Options{
		APIKey:          cfg.Providers.Gemini.APIKey,
		GenerationModel: cfg.Providers.Gemini.GenerationModel,
		EmbeddingModel:  cfg.Providers.Gemini.EmbeddingModel,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create gemini client", zap.Error(err))
	}

	var openaiClient *openai.Client
	if cfg.Providers.OpenAI.APIKey != "" {
		openaiClient, err = openai.New(&http.Client{Timeout: cfg.Providers.OpenAI.RequestTimeout},
			openai.Options{
				APIKey:             cfg.Providers.OpenAI.APIKey,
				BaseURL:            cfg.Providers.OpenAI.BaseURL,
				EmbeddingModel:     cfg.Providers.OpenAI.EmbeddingModel,
				TranscriptionModel: cfg.Providers.OpenAI.TranscriptionModel,
			})
		if err != nil {
			logger.Fatal(ctx, "could not create openai client", zap.Error(err))
		}
	}

	p := providers{
		embedder:    geminiClient,
		generator:   geminiClient,
		ocr:         geminiClient,
		transcriber: geminiClient,
	}
	if cfg.Providers.EmbeddingProvider == "openai" {
		if openaiClient == nil {
			logger.Fatal(ctx, "openai selected as embedding provider but no API key configured")
		}
		p.embedder = openaiClient
	}
	if cfg.Providers.TranscriptionProvider == "openai" {
		if openaiClient == nil {
			logger.Fatal(ctx, "openai selected as transcription provider but no API key configured")
		}
		p.transcriber = openaiClient
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		p.embedder = embcache.NewEmbedder(p.embedder,
			embcache.New(rdb, cfg.Redis.EmbeddingTTL))
	}

	return p
}

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...")
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and ingestion workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

			pgsql, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			store := getVectorStore(ctx, cfg)
			p := getProviders(ctx, cfg)

			ingestor := ingest.New(pgsql, store, ingest.NewOptions(cfg))
			querier := query.New(p.embedder, store, p.generator, query.NewOptions(cfg))

			ingestWorker := worker.NewIngestWorker(pgsql,
				extract.New(p.ocr, p.transcriber),
				chunker.NewSentenceChunker(cfg.Ingest.ChunkSentences, cfg.Ingest.ChunkOverlap),
				p.embedder,
				store,
				worker.IngestWorkerOptions{
					MaxAttempts:    cfg.Ingest.MaxAttempts,
					EmbedBatchSize: cfg.Ingest.EmbedBatchSize,
				})
			riverClient, err := worker.Start(ctx, pgsql.Pool, ingestWorker, cfg.Ingest.MaxWorkers)
			if err != nil {
				logger.Fatal(ctx, "could not start workers", zap.Error(err))
			}

			stopWebserver := setupServer(ctx, cfg, api.Deps{Deps: v1handler.Deps{
				Ingestor:       ingestor,
				Querier:        querier,
				MaxUploadBytes: cfg.Ingest.MaxFileSize,
			}})

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)

			logger.Info(ctx, "stopping workers...")
			if err := riverClient.Stop(shutdownCtx); err != nil {
				logger.Error(ctx, "could not stop workers", zap.Error(err))
			}
		},
	}

	return cmd
}
