// Package query answers questions over a user's indexed documents: it embeds
// the question, retrieves the closest chunks and generates a grounded answer
// with citations.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mmrag/internal/config"
	"mmrag/pkg/domain"
	"mmrag/pkg/llm"
	"mmrag/pkg/serrors"
	"mmrag/pkg/vectorstore"
)

// citationMarker matches [n] source references in generated answers.
var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// Options configure retrieval and prompt assembly. These settings are
// typically derived from application configuration.
type Options struct {
	// TopK is the default number of chunks retrieved per question.
	TopK int
	// MaxTopK caps the per-request topK override.
	MaxTopK int
	// MinScore drops retrieved chunks below this similarity; 0 disables it.
	MinScore float64
	// MaxContextChars bounds the total source text placed into the prompt.
	// At least one source is always included.
	MaxContextChars int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		TopK:            cfg.Query.TopK,
		MaxTopK:         cfg.Query.MaxTopK,
		MinScore:        cfg.Query.MinScore,
		MaxContextChars: cfg.Query.MaxContextChars,
	}
}

// querier is the concrete implementation of the Querier interface.
type querier struct {
	options   Options
	embedder  llm.Embedder
	vectors   vectorstore.Store
	generator llm.Generator
}

// Answer runs the full retrieval-augmented flow for one question: embed,
// search the user's chunks, build a numbered-source prompt and generate. The
// returned answer carries one citation per source that made it into the
// prompt, in prompt order; markers like [2] in the text refer to this list
// one-based.
func (q querier) Answer(ctx context.Context, userID domain.UserID, req Request) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, serrors.With(serrors.ErrBadRequest, "question must not be empty")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = q.options.TopK
	}
	if q.options.MaxTopK > 0 && topK > q.options.MaxTopK {
		topK = q.options.MaxTopK
	}

	vector, _, err := q.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("could not embed question: %w", err)
	}

	chunks, err := q.vectors.Search(ctx, userID, vector, vectorstore.SearchParams{
		TopK:       topK,
		MinScore:   q.options.MinScore,
		DocumentID: req.DocumentID,
	})
	if err != nil {
		return nil, fmt.Errorf("could not search chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, serrors.With(serrors.ErrNotFound, "no indexed content matched the question")
	}

	sources, prompt := q.buildPrompt(question, chunks)

	generation, err := q.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("could not generate answer: %w", err)
	}

	return &domain.Answer{
		Text:      generation.Text,
		Model:     generation.Model,
		Citations: citations(generation.Text, sources),
	}, nil
}

// buildPrompt assembles the generation prompt from the retrieved chunks,
// truncating the source list once MaxContextChars is reached. The first
// source is always kept so the model has something to work with. It returns
// the sources that made it into the prompt and the prompt itself.
func (q querier) buildPrompt(question string, chunks []domain.ScoredChunk) ([]domain.ScoredChunk, string) {
	var sb strings.Builder
	sb.WriteString("Answer the question using only the numbered sources below. ")
	sb.WriteString("Cite the sources you used with their number in brackets, like [1]. ")
	sb.WriteString("If the sources do not contain the answer, say so.\n\n")

	var sources []domain.ScoredChunk
	contextChars := 0
	for i, chunk := range chunks {
		block := fmt.Sprintf("[%d] (%s)\n%s\n\n", i+1, chunk.DocumentName, chunk.Text)
		if q.options.MaxContextChars > 0 &&
			len(sources) > 0 &&
			contextChars+len(block) > q.options.MaxContextChars {
			break
		}

		sb.WriteString(block)
		contextChars += len(block)
		sources = append(sources, chunk)
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)

	return sources, sb.String()
}

// citations maps the [n] markers found in the answer text back to the prompt
// sources. An answer without any valid marker cites every source, so the
// caller always knows what the answer was grounded on.
func citations(text string, sources []domain.ScoredChunk) []domain.Citation {
	cited := make([]domain.Citation, 0, len(sources))
	seen := make(map[int]bool, len(sources))

	for _, match := range citationMarker.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(sources) || seen[n] {
			continue
		}
		seen[n] = true
		cited = append(cited, citation(sources[n-1]))
	}

	if len(cited) == 0 {
		for _, source := range sources {
			cited = append(cited, citation(source))
		}
	}

	return cited
}

func citation(source domain.ScoredChunk) domain.Citation {
	return domain.Citation{
		DocumentID:   source.DocumentID,
		DocumentName: source.DocumentName,
		ChunkSeq:     source.Seq,
		Score:        source.Score,
	}
}

// New creates a new Querier over the given embedder, vector store and
// generator.
func New(embedder llm.Embedder, vectors vectorstore.Store, generator llm.Generator, options Options) Querier {
	return querier{
		options:   options,
		embedder:  embedder,
		vectors:   vectors,
		generator: generator,
	}
}
