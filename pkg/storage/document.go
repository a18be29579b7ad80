package storage

import (
	"context"
	"time"

	"mmrag/pkg/domain"
)

// DocumentUpdates describes optional fields applied to a document during an
// update. Only set fields are written.
type DocumentUpdates struct {
	// Status is the new lifecycle status to set.
	Status domain.DocumentStatus
	// Extraction, when provided, replaces the stored extraction outcome
	// (extracted text, extractor name, duration, pages).
	Extraction *domain.Extraction
	// ChunkCount, when provided, sets the number of indexed chunks.
	ChunkCount *int
	// LastError, when provided, sets the last error text. An empty string
	// clears it (NULL).
	LastError *string
	// MaxAttempts, when set alongside a Failed status, only flips the status
	// to Failed if attempts after increment would reach this threshold;
	// otherwise the status stays Pending so the job can retry. <= 0 disables
	// the guard.
	MaxAttempts int
	// IncrementAttempts controls whether attempts is bumped by this update.
	IncrementAttempts bool
}

// DocumentCursor points at the last document of a page. Listing resumes
// strictly after it in (created_at DESC, id DESC) order, so rows sharing a
// created_at timestamp across a page boundary are not skipped.
type DocumentCursor struct {
	CreatedAt time.Time
	ID        domain.DocumentID
}

// UserDocuments is one page of a user's documents plus the cursor for the
// next page, nil when there is none.
type UserDocuments struct {
	// Documents contains the page, newest first.
	Documents []domain.Document
	// NextCursor identifies the last row of this page, nil on the final page.
	NextCursor *DocumentCursor
}

// DocumentStorage defines persistence operations for documents. Reads exclude
// soft-deleted rows; payload bytes are only returned by DocumentForIngest.
type DocumentStorage interface {
	// StoreDocuments inserts documents and returns the stored rows including
	// generated fields. Payloads are persisted but not echoed back.
	StoreDocuments(ctx context.Context, docs ...domain.Document) ([]domain.Document, error)
	// DocumentByID fetches one document scoped to a user. Returns nil when
	// not found.
	DocumentByID(ctx context.Context, userID domain.UserID, id domain.DocumentID) (*domain.Document, error)
	// DocumentForIngest fetches one document by ID regardless of owner,
	// including the raw payload. Used by the ingestion worker.
	DocumentForIngest(ctx context.Context, id domain.DocumentID) (*domain.Document, error)
	// UpdateDocumentByID applies updates to a single document and returns the
	// updated row, or nil when it does not exist. updated_at is set
	// automatically.
	UpdateDocumentByID(ctx context.Context, id domain.DocumentID, updates DocumentUpdates) (*domain.Document, error)
	// DeleteDocument soft-deletes a user's document and returns the deleted
	// row, or nil when it was not found.
	DeleteDocument(ctx context.Context, userID domain.UserID, id domain.DocumentID) (*domain.Document, error)
	// UserDocuments returns a page of a user's documents after the optional
	// cursor, newest first, optionally filtered by status.
	UserDocuments(ctx context.Context,
		userID domain.UserID,
		status domain.DocumentStatus,
		cursor *DocumentCursor,
		limit uint) (UserDocuments, error)
	// CompletedDocumentByHash returns the most recent completed document with
	// the given content hash for the user, created after notBefore. Returns
	// nil when none exists. Used to reuse ingestion results for byte-identical
	// uploads.
	CompletedDocumentByHash(ctx context.Context,
		userID domain.UserID,
		contentHash string,
		notBefore time.Time) (*domain.Document, error)
}
