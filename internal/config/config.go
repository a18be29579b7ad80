// Package config loads the application configuration from a yaml file with
// environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the application configuration. Values come from the yaml config
// file and can be overridden through environment variables.
type Config struct {
	// Environment is the running environment (development, production).
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP configures the API server.
	HTTP struct {
		// Addr is the address and port the HTTP server listens on.
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request.
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"5m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the time allowed to read request headers.
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out response writes.
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"5m" yaml:"writeTimeout"`
		// IdleTimeout is the keep-alive idle timeout.
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout bounds handling of a single request. Query requests
		// include a generation call, so this is generous by default.
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"2m" yaml:"requestTimeout"`
		// MaxHeaderBytes limits the request header size; 0 uses the net/http default.
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath is the path at which Prometheus metrics are served.
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Database configures the PostgreSQL connection.
	Database struct {
		// Username for database authentication.
		Username string `env:"DATABASE_USERNAME" env-default:"mmrag" yaml:"username"`
		// Password for database authentication.
		Password string `env:"DATABASE_PASSWORD" env-default:"mmrag" yaml:"password"`
		// Host is the database server hostname or IP address.
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port.
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode is the SSL mode for the connection.
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the database to connect to.
		DatabaseName string `env:"DATABASE_NAME" env-default:"mmrag" yaml:"name"`
		// MaxOpenConnections limits open connections.
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits idle pooled connections.
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime bounds how long a connection may be reused.
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime bounds how long a connection may sit idle.
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// Redis configures the optional embedding cache. Leave Addr empty to run
	// without a cache.
	Redis struct {
		// Addr is the Redis host:port; empty disables the embedding cache.
		Addr string `env:"REDIS_ADDR" env-default:"" yaml:"addr"`
		// Password authenticates against Redis when set.
		Password string `env:"REDIS_PASSWORD" env-default:"" yaml:"password"`
		// Database selects the Redis logical database.
		Database int `env:"REDIS_DATABASE" env-default:"0" yaml:"database"`
		// EmbeddingTTL is how long cached embeddings stay valid.
		EmbeddingTTL time.Duration `env:"REDIS_EMBEDDING_TTL" env-default:"168h" yaml:"embeddingTTL"`
	} `yaml:"redis"`

	// Weaviate configures the chunk vector index. Leave Host empty to use the
	// in-process store (development and tests only; it is not persistent).
	Weaviate struct {
		// Host is the Weaviate host:port; empty selects the in-memory store.
		Host string `env:"WEAVIATE_HOST" env-default:"" yaml:"host"`
		// Scheme is http or https.
		Scheme string `env:"WEAVIATE_SCHEME" env-default:"http" yaml:"scheme"`
		// APIKey authenticates against Weaviate when set.
		APIKey string `env:"WEAVIATE_API_KEY" env-default:"" yaml:"apiKey"`
		// Class is the schema class chunks are stored under.
		Class string `env:"WEAVIATE_CLASS" env-default:"DocumentChunk" yaml:"class"`
	} `yaml:"weaviate"`

	// Providers configures the LLM providers.
	Providers struct {
		// EmbeddingProvider selects which provider embeds chunks and queries:
		// "gemini" or "openai".
		EmbeddingProvider string `env:"PROVIDERS_EMBEDDING" env-default:"gemini" yaml:"embeddingProvider"`
		// TranscriptionProvider selects who transcribes audio: "gemini" or "openai".
		TranscriptionProvider string `env:"PROVIDERS_TRANSCRIPTION" env-default:"openai" yaml:"transcriptionProvider"`

		Gemini struct {
			// APIKey is the Gemini API key.
			APIKey string `env:"GEMINI_API_KEY" env-default:"" yaml:"apiKey"`
			// GenerationModel is used for answers, OCR and transcription.
			GenerationModel string `env:"GEMINI_GENERATION_MODEL" env-default:"gemini-1.5-pro-latest" yaml:"generationModel"`
			// EmbeddingModel is used for chunk and query embeddings.
			EmbeddingModel string `env:"GEMINI_EMBEDDING_MODEL" env-default:"gemini-embedding-001" yaml:"embeddingModel"`
		} `yaml:"gemini"`

		OpenAI struct {
			// APIKey is the OpenAI API key.
			APIKey string `env:"OPENAI_API_KEY" env-default:"" yaml:"apiKey"`
			// BaseURL allows pointing at an OpenAI-compatible endpoint.
			BaseURL string `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1" yaml:"baseURL"`
			// EmbeddingModel is used for chunk and query embeddings.
			EmbeddingModel string `env:"OPENAI_EMBEDDING_MODEL" env-default:"text-embedding-3-small" yaml:"embeddingModel"`
			// TranscriptionModel is used for audio transcription.
			TranscriptionModel string `env:"OPENAI_TRANSCRIPTION_MODEL" env-default:"whisper-1" yaml:"transcriptionModel"`
			// RequestTimeout bounds individual provider calls.
			RequestTimeout time.Duration `env:"OPENAI_REQUEST_TIMEOUT" env-default:"2m" yaml:"requestTimeout"`
		} `yaml:"openai"`
	} `yaml:"providers"`

	// Ingest configures the ingestion pipeline.
	Ingest struct {
		// MaxAttempts is the number of times a document ingestion job is tried
		// before the document is marked failed.
		MaxAttempts int `env:"INGEST_MAX_ATTEMPTS" env-default:"4" yaml:"maxAttempts"`
		// MaxWorkers bounds concurrent ingestion jobs.
		MaxWorkers int `env:"INGEST_MAX_WORKERS" env-default:"10" yaml:"maxWorkers"`
		// MaxFileSize limits uploaded payloads in bytes.
		MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" env-default:"33554432" yaml:"maxFileSize"`
		// ChunkSentences is the number of sentences per chunk.
		ChunkSentences int `env:"INGEST_CHUNK_SENTENCES" env-default:"6" yaml:"chunkSentences"`
		// ChunkOverlap is the number of sentences shared by adjacent chunks.
		ChunkOverlap int `env:"INGEST_CHUNK_OVERLAP" env-default:"1" yaml:"chunkOverlap"`
		// EmbedBatchSize is the number of chunks embedded per provider call.
		EmbedBatchSize int `env:"INGEST_EMBED_BATCH_SIZE" env-default:"32" yaml:"embedBatchSize"`
		// DedupeWindow is the lookback during which a byte-identical upload
		// reuses the previous ingestion instead of enqueueing a new job.
		DedupeWindow time.Duration `env:"INGEST_DEDUPE_WINDOW" env-default:"24h" yaml:"dedupeWindow"`
	} `yaml:"ingest"`

	// Query configures retrieval and generation.
	Query struct {
		// TopK is the default number of chunks retrieved per question.
		TopK int `env:"QUERY_TOP_K" env-default:"5" yaml:"topK"`
		// MaxTopK caps the per-request topK parameter.
		MaxTopK int `env:"QUERY_MAX_TOP_K" env-default:"20" yaml:"maxTopK"`
		// MinScore filters out retrieved chunks below this similarity.
		MinScore float64 `env:"QUERY_MIN_SCORE" env-default:"0" yaml:"minScore"`
		// MaxContextChars bounds the total context placed into the prompt.
		MaxContextChars int `env:"QUERY_MAX_CONTEXT_CHARS" env-default:"24000" yaml:"maxContextChars"`
	} `yaml:"query"`

	// JWT configures API authentication. PublicKey verifies requests; the
	// private key is only needed by the jwt subcommand.
	JWT struct {
		// PublicKey is the PEM-encoded RSA public key used to verify tokens.
		PublicKey string `env:"JWT_PUBLIC_KEY" env-default:"" yaml:"publicKey"`
		// PrivateKey is the PEM-encoded RSA private key used to sign tokens.
		PrivateKey string `env:"JWT_PRIVATE_KEY" env-default:"" yaml:"privateKey"`
	} `yaml:"jwt"`

	// GracefulShutdownTimeout bounds how long shutdown waits for in-flight work.
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"30s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load reads the yaml config at configPath, applies environment overrides and
// returns the filled Config.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}
