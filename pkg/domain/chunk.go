package domain

// Chunk is a retrieval unit cut from a document's extracted text. Chunks are
// stored in the vector index only; Postgres keeps documents whole.
type Chunk struct {
	// DocumentID is the document this chunk was cut from.
	DocumentID DocumentID `json:"documentId"`
	// Seq is the zero-based position of the chunk within the document.
	Seq int `json:"seq"`
	// Text is the chunk content handed to the embedder.
	Text string `json:"text"`
}

// ScoredChunk is a chunk returned from similarity search together with its
// score and enough document context to build a citation.
type ScoredChunk struct {
	Chunk

	// DocumentName is the name of the owning document at index time.
	DocumentName string `json:"documentName"`
	// Score is the similarity score reported by the vector store; higher is
	// more similar.
	Score float64 `json:"score"`
}
