package domain

// Citation points from an answer back to an indexed chunk it was grounded on.
type Citation struct {
	// DocumentID identifies the cited document.
	DocumentID DocumentID `json:"documentId"`
	// DocumentName is the cited document's name.
	DocumentName string `json:"documentName"`
	// ChunkSeq is the sequence number of the cited chunk.
	ChunkSeq int `json:"chunkSeq"`
	// Score is the retrieval score of the cited chunk.
	Score float64 `json:"score"`
}

// Answer is the result of a retrieval-augmented query: the generated text and
// the ordered set of sources that were placed in the prompt context.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"text"`
	// Model names the generation model that produced Text.
	Model string `json:"model"`
	// Citations lists the retrieved chunks in the order they appeared in the
	// prompt context. Citation markers in Text ([1], [2], ...) refer to this
	// slice one-based.
	Citations []Citation `json:"citations"`
}
