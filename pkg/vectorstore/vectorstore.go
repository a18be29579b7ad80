// Package vectorstore abstracts the vector index that chunk embeddings are
// written to and queried from.
package vectorstore

import (
	"context"

	"mmrag/pkg/domain"
)

// IndexedChunk pairs a chunk with its embedding vector for indexing.
type IndexedChunk struct {
	Chunk  domain.Chunk
	Vector []float32
}

// SearchParams bounds a similarity search.
type SearchParams struct {
	TopK     int     // TopK is the maximum number of chunks to return.
	MinScore float64 // MinScore drops chunks scoring below it; 0 disables the cutoff.
	// DocumentID, when set, restricts the search to a single document.
	DocumentID *domain.DocumentID
}

// Store is the abstraction over the vector index. Implementations must scope
// every operation to the given user so tenants never see each other's chunks.
//
//go:generate mockgen -package mockvectorstore -source=vectorstore.go -destination=mock/mockvectorstore.go *
type Store interface {
	// Init prepares the backing index (schema, collections). Safe to call
	// repeatedly.
	Init(ctx context.Context) error
	// IndexChunks writes chunk vectors for one document. Re-indexing the same
	// document overwrites previous entries for the same sequence numbers.
	IndexChunks(ctx context.Context,
		userID domain.UserID,
		documentName string,
		chunks []IndexedChunk) error
	// Search returns the chunks closest to the query vector, best first.
	Search(ctx context.Context,
		userID domain.UserID,
		vector []float32,
		params SearchParams) ([]domain.ScoredChunk, error)
	// DeleteDocument removes every chunk indexed for the document.
	DeleteDocument(ctx context.Context, userID domain.UserID, id domain.DocumentID) error
}
