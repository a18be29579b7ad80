// Package chunker splits extracted text into overlapping sentence-based
// chunks suitable for embedding and retrieval.
package chunker

import (
	"regexp"
	"strings"

	"mmrag/pkg/domain"
)

// SentenceChunker splits text into chunks of a fixed number of sentences,
// with a configurable number of sentences shared between adjacent chunks.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// NewSentenceChunker creates a chunker. Non-positive sentencesPerChunk falls
// back to 5; overlapSentences is clamped to [0, sentencesPerChunk-1] so every
// chunk makes forward progress.
func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}

	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits text into ordered chunks for the given document. Text without
// sentence terminators becomes a single chunk; blank text yields none.
func (c *SentenceChunker) Chunk(documentID domain.DocumentID, text string) []domain.Chunk {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []domain.Chunk
	i := 0
	seq := 0
	for i < len(sentences) {
		end := min(i+c.sentencesPerChunk, len(sentences))
		chunks = append(chunks, domain.Chunk{
			DocumentID: documentID,
			Seq:        seq,
			Text:       strings.Join(sentences[i:end], " "),
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		seq++
	}

	return chunks
}
