// Package openai provides llm.Embedder and llm.Transcriber implementations
// backed by the OpenAI REST API (or any API-compatible endpoint).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mmrag/pkg/llm"
	"mmrag/pkg/serrors"
)

// Client talks to the OpenAI REST API and fulfills the llm.Embedder and
// llm.Transcriber interfaces. It is safe for concurrent use.
//
// The client performs one attempt per call; retry and pacing decisions belong
// to the caller, driven by the returned rate-limit status and error kinds.
type Client struct {
	httpClient         *http.Client
	baseURL            string
	apiKey             string
	embeddingModel     string
	transcriptionModel string
}

// Options configures an OpenAI client.
type Options struct {
	APIKey             string
	BaseURL            string // defaults to https://api.openai.com/v1
	EmbeddingModel     string // defaults to text-embedding-3-small
	TranscriptionModel string // defaults to whisper-1
}

// New constructs a Client using the provided http.Client and options.
func New(httpClient *http.Client, options Options) (*Client, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if options.BaseURL == "" {
		options.BaseURL = "https://api.openai.com/v1"
	}
	if options.EmbeddingModel == "" {
		options.EmbeddingModel = "text-embedding-3-small"
	}
	if options.TranscriptionModel == "" {
		options.TranscriptionModel = "whisper-1"
	}

	return &Client{
		httpClient:         httpClient,
		baseURL:            strings.TrimSuffix(options.BaseURL, "/"),
		apiKey:             options.APIKey,
		embeddingModel:     options.EmbeddingModel,
		transcriptionModel: options.TranscriptionModel,
	}, nil
}

// ParseRateLimit extracts OpenAI request rate-limit information from the HTTP
// response headers. OpenAI reports the reset as a relative duration such as
// "1s" or "6m30s"; a missing or unparseable header yields an unknown status.
func ParseRateLimit(h http.Header) llm.RateLimitStatus {
	atoi := func(s string) int {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}

		return 0
	}
	limit := atoi(h.Get("X-Ratelimit-Limit-Requests"))
	remaining := atoi(h.Get("X-Ratelimit-Remaining-Requests"))

	reset, err := time.ParseDuration(h.Get("X-Ratelimit-Reset-Requests"))
	if err != nil {
		return llm.RateLimitStatus{}
	}

	return llm.RateLimitStatus{
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(reset),
	}
}

func (c *Client) do(req *http.Request) ([]byte, llm.RateLimitStatus, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, llm.RateLimitStatus{}, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rl := ParseRateLimit(resp.Header)
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rl, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rl, serrors.With(serrors.ErrRateLimited, "rate limited: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rl, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return b, rl, nil
}

func (c *Client) embed(ctx context.Context, input []string) ([][]float32, llm.RateLimitStatus, error) {
	// https://platform.openai.com/docs/api-reference/embeddings/create
	type embedReq struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	bodyBytes, err := json.Marshal(embedReq{Input: input, Model: c.embeddingModel})
	if err != nil {
		return nil, llm.RateLimitStatus{}, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.baseURL+"/embeddings",
		bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, llm.RateLimitStatus{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	b, rl, err := c.do(req)
	if err != nil {
		return nil, rl, err
	}

	var embedResp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &embedResp); err != nil {
		return nil, rl, fmt.Errorf("could not decode response: %w", err)
	}
	if len(embedResp.Data) != len(input) {
		return nil, rl, fmt.Errorf("expected %d embeddings, got %d", len(input), len(embedResp.Data))
	}

	vectors := make([][]float32, len(input))
	for _, d := range embedResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, rl, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, rl, nil
}

// EmbedDocuments embeds a batch of chunk texts.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
	if len(texts) == 0 {
		return nil, llm.RateLimitStatus{}, nil
	}

	return c.embed(ctx, texts)
}

// EmbedQuery embeds a search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, llm.RateLimitStatus, error) {
	vectors, rl, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, rl, err
	}

	return vectors[0], rl, nil
}

// Model returns the embedding model name.
func (c *Client) Model() string {
	return c.embeddingModel
}

// audioFilename maps an audio MIME type to a filename whisper accepts; the
// endpoint sniffs the format from the multipart filename extension.
func audioFilename(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return "audio.mp3"
	case "audio/wav", "audio/x-wav":
		return "audio.wav"
	case "audio/ogg":
		return "audio.ogg"
	case "audio/flac":
		return "audio.flac"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "audio.m4a"
	case "audio/webm":
		return "audio.webm"
	default:
		return "audio.mp3"
	}
}

// Transcribe sends the audio bytes to the transcription endpoint and returns
// the transcript.
func (c *Client) Transcribe(ctx context.Context, data []byte, mimeType string) (string, llm.RateLimitStatus, error) {
	// https://platform.openai.com/docs/api-reference/audio/createTranscription
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model", c.transcriptionModel); err != nil {
		return "", llm.RateLimitStatus{}, fmt.Errorf("could not write model field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", audioFilename(mimeType))
	if err != nil {
		return "", llm.RateLimitStatus{}, fmt.Errorf("could not create file field: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", llm.RateLimitStatus{}, fmt.Errorf("could not write audio bytes: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", llm.RateLimitStatus{}, fmt.Errorf("could not finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.baseURL+"/audio/transcriptions",
		&buf)
	if err != nil {
		return "", llm.RateLimitStatus{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	b, rl, err := c.do(req)
	if err != nil {
		return "", rl, err
	}

	var transcriptionResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &transcriptionResp); err != nil {
		return "", rl, fmt.Errorf("could not decode response: %w", err)
	}

	return strings.TrimSpace(transcriptionResp.Text), rl, nil
}

// Ensure Client conforms to the provider interfaces at compile time.
var (
	_ llm.Embedder    = (*Client)(nil)
	_ llm.Transcriber = (*Client)(nil)
)
