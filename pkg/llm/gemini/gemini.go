// Package gemini implements the llm provider interfaces on top of Google's
// Gemini API. One client serves embeddings, generation, OCR and
// transcription.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"mmrag/pkg/llm"

	"google.golang.org/genai"
)

const (
	ocrPrompt = "The attached image is a rendered document page. Understand its layout, " +
		"then transcribe the content into Markdown that preserves the reading order and " +
		"structure (headings, lists, tables). Output only the Markdown."

	transcribePrompt = "Transcribe the attached audio verbatim. " +
		"Output only the transcript text."
)

// Client talks to the Gemini API and fulfills llm.Embedder, llm.Generator,
// llm.OCR and llm.Transcriber. It is safe for concurrent use.
//
// Gemini does not expose rate-limit headers through the SDK, so every
// returned llm.RateLimitStatus is zero (unknown).
type Client struct {
	client          *genai.Client
	generationModel string
	embeddingModel  string
}

// Options configures a Gemini client.
type Options struct {
	APIKey          string
	GenerationModel string // defaults to gemini-1.5-pro-latest
	EmbeddingModel  string // defaults to gemini-embedding-001
}

// New constructs a Gemini client.
func New(ctx context.Context, options Options) (*Client, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if options.GenerationModel == "" {
		options.GenerationModel = "gemini-1.5-pro-latest"
	}
	if options.EmbeddingModel == "" {
		options.EmbeddingModel = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: options.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create gemini client: %w", err)
	}

	return &Client{
		client:          client,
		generationModel: options.GenerationModel,
		embeddingModel:  options.EmbeddingModel,
	}, nil
}

func (c *Client) embed(ctx context.Context,
	texts []string,
	taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := c.client.Models.EmbedContent(ctx,
		c.embeddingModel,
		contents,
		&genai.EmbedContentConfig{
			TaskType: taskType,
		})
	if err != nil {
		return nil, fmt.Errorf("could not embed content: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}

	return vectors, nil
}

// EmbedDocuments embeds chunk texts with the retrieval-document task type.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
	if len(texts) == 0 {
		return nil, llm.RateLimitStatus{}, nil
	}

	vectors, err := c.embed(ctx, texts, "RETRIEVAL_DOCUMENT")

	return vectors, llm.RateLimitStatus{}, err
}

// EmbedQuery embeds a search query with the retrieval-query task type.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, llm.RateLimitStatus, error) {
	vectors, err := c.embed(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, llm.RateLimitStatus{}, err
	}

	return vectors[0], llm.RateLimitStatus{}, nil
}

// Model returns the embedding model name.
func (c *Client) Model() string {
	return c.embeddingModel
}

// Generate runs one text completion against the generation model.
func (c *Client) Generate(ctx context.Context, prompt string) (llm.Generation, error) {
	result, err := c.client.Models.GenerateContent(ctx,
		c.generationModel,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		nil)
	if err != nil {
		return llm.Generation{}, fmt.Errorf("could not generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return llm.Generation{}, fmt.Errorf("empty generation response")
	}

	return llm.Generation{Text: text, Model: c.generationModel}, nil
}

// ImageText asks the generation model to transcribe a document image into
// Markdown.
func (c *Client) ImageText(ctx context.Context, data []byte, mimeType string) (string, error) {
	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(ocrPrompt),
		genai.NewPartFromBytes(data, mimeType),
	}, genai.RoleUser)

	result, err := c.client.Models.GenerateContent(ctx,
		c.generationModel,
		[]*genai.Content{content},
		nil)
	if err != nil {
		return "", fmt.Errorf("could not run image OCR: %w", err)
	}

	return strings.TrimSpace(result.Text()), nil
}

// Transcribe asks the generation model for a verbatim transcript of the
// audio bytes.
func (c *Client) Transcribe(ctx context.Context, data []byte, mimeType string) (string, llm.RateLimitStatus, error) {
	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(data, mimeType),
	}, genai.RoleUser)

	result, err := c.client.Models.GenerateContent(ctx,
		c.generationModel,
		[]*genai.Content{content},
		nil)
	if err != nil {
		return "", llm.RateLimitStatus{}, fmt.Errorf("could not transcribe audio: %w", err)
	}

	return strings.TrimSpace(result.Text()), llm.RateLimitStatus{}, nil
}

// Ensure Client conforms to the provider interfaces at compile time.
var (
	_ llm.Embedder    = (*Client)(nil)
	_ llm.Generator   = (*Client)(nil)
	_ llm.OCR         = (*Client)(nil)
	_ llm.Transcriber = (*Client)(nil)
)
