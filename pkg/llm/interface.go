// Package llm defines interfaces and data types for the model providers the
// service depends on: embedding, grounded text generation, image OCR and
// audio transcription.
package llm

import (
	"context"
	"time"
)

// RateLimitStatus describes the current API rate-limit status reported by the
// underlying provider. A zero ResetAt means the provider did not report one.
type RateLimitStatus struct {
	Limit     int       // Limit is the total number of allowed requests in the current window.
	Remaining int       // Remaining indicates how many requests are left in the current window.
	ResetAt   time.Time // ResetAt is when the rate-limit window resets.
}

// Known reports whether the provider returned usable rate-limit information.
func (s RateLimitStatus) Known() bool {
	return !s.ResetAt.IsZero()
}

// Embedder converts text into dense vectors. Document and query embeddings
// are separate because some providers optimize them with distinct task types.
//
//go:generate mockgen -package mockllm -source=interface.go -destination=mock/mockllm.go *
type Embedder interface {
	// EmbedDocuments embeds a batch of chunk texts for indexing. The returned
	// slice is index-aligned with texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, RateLimitStatus, error)
	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, RateLimitStatus, error)
	// Model identifies the embedding model, used to key cached vectors.
	Model() string
}

// Generation is the outcome of one completion.
type Generation struct {
	Text  string // Text is the generated answer.
	Model string // Model identifies the model that produced it.
}

// Generator produces an answer from a fully assembled prompt.
type Generator interface {
	// Generate runs one completion.
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// OCR extracts readable text from an image.
type OCR interface {
	// ImageText converts an image into Markdown-structured text, preserving
	// the source layout as well as the model can.
	ImageText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Transcriber converts speech audio into text.
type Transcriber interface {
	// Transcribe returns the transcript of the given audio bytes.
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, RateLimitStatus, error)
}
