// Package ingest implements the document lifecycle: accepting uploads,
// enqueueing ingestion jobs, listing and deleting documents.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"mmrag/internal/config"
	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"
	"mmrag/pkg/storage"
	"mmrag/pkg/vectorstore"

	"github.com/google/uuid"
)

// Options configure how uploads are accepted and how ingestion jobs are
// enqueued. These settings are typically derived from application
// configuration.
type Options struct {
	// MaxAttempts is the maximum number of attempts the background worker
	// should make when processing an ingestion job before marking the
	// document failed.
	MaxAttempts int
	// MaxFileSize limits the accepted payload size in bytes.
	MaxFileSize int64
	// DedupeWindow is the lookback during which a byte-identical upload by
	// the same user reuses the earlier extraction instead of enqueueing a new
	// job.
	DedupeWindow time.Duration
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxAttempts:  cfg.Ingest.MaxAttempts,
		MaxFileSize:  cfg.Ingest.MaxFileSize,
		DedupeWindow: cfg.Ingest.DedupeWindow,
	}
}

// ingestor is the concrete implementation of the Ingestor interface. It
// coordinates persistence with the storage layer, job enqueueing and the
// vector index.
type ingestor struct {
	options Options
	storage storage.Storage
	vectors vectorstore.Store
}

// Upload stores a new document for the given user and enqueues its ingestion
// job in the same transaction. When a byte-identical payload was already
// ingested for this user inside the dedupe window, the new document is
// completed immediately by reusing the earlier extraction and no job is
// enqueued.
func (i ingestor) Upload(ctx context.Context, userID domain.UserID, up Upload) (*domain.Document, error) {
	if strings.TrimSpace(up.Name) == "" {
		return nil, serrors.With(serrors.ErrBadRequest, "document name is required")
	}
	if len(up.Payload) == 0 {
		return nil, serrors.With(serrors.ErrBadRequest, "document payload is empty")
	}
	if i.options.MaxFileSize > 0 && int64(len(up.Payload)) > i.options.MaxFileSize {
		return nil, serrors.With(serrors.ErrBadRequest,
			"document payload exceeds the %d byte limit", i.options.MaxFileSize)
	}

	modality, mimeType, err := DetectModality(up.MimeType)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(up.Payload)
	contentHash := hex.EncodeToString(sum[:])

	var doc *domain.Document
	if err := i.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		previous, err := tx.CompletedDocumentByHash(ctx, userID, contentHash,
			time.Now().Add(-i.options.DedupeWindow))
		if err != nil {
			return fmt.Errorf("could not look up previous ingestion: %w", err)
		}

		newDoc := domain.Document{
			UserID:      userID,
			Name:        up.Name,
			Modality:    modality,
			MimeType:    mimeType,
			Status:      domain.DocumentStatusPending,
			ContentHash: contentHash,
			Payload:     up.Payload,
		}
		if previous != nil {
			// reuse the earlier extraction; the previous document's chunks
			// already serve queries for this content.
			newDoc.Status = domain.DocumentStatusCompleted
			newDoc.Extraction = previous.Extraction
			newDoc.ChunkCount = previous.ChunkCount
		}

		res, err := tx.StoreDocuments(ctx, newDoc)
		if err != nil {
			return fmt.Errorf("could not store document: %w", err)
		}
		doc = &res[0]

		if previous != nil {
			return nil
		}

		if _, err := tx.AddJob(ctx, JobArgs{
			DocumentID:  uuid.UUID(doc.ID),
			maxAttempts: i.options.MaxAttempts,
		}, nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not ingest upload: %w", err)
	}

	return doc, nil
}

// Document fetches a single document by ID for the given user. It returns a
// not-found error when no matching document exists.
func (i ingestor) Document(ctx context.Context, userID domain.UserID, id domain.DocumentID) (*domain.Document, error) {
	doc, err := i.storage.DocumentByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("could not get document: %w", err)
	}
	if doc == nil {
		return nil, serrors.With(serrors.ErrNotFound, "document not found")
	}

	return doc, nil
}

// cursorSeparator joins the timestamp and document ID halves of a page
// cursor.
const cursorSeparator = ","

// UserDocuments returns a page of documents for the given user filtered by
// status. Pagination uses an opaque cursor identifying the last row of the
// previous page; the next cursor is returned when more results are available.
func (i ingestor) UserDocuments(ctx context.Context,
	userID domain.UserID,
	status domain.DocumentStatus,
	cursor string,
	limit uint) ([]domain.Document, string, error) {
	cur, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	page, err := i.storage.UserDocuments(ctx, userID, status, cur, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not get user documents: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = page.NextCursor.CreatedAt.Format(time.RFC3339Nano) +
			cursorSeparator + uuid.UUID(page.NextCursor.ID).String()
	}

	return page.Documents, next, nil
}

// parseCursor decodes a "<RFC3339Nano>,<document UUID>" page cursor, nil for
// the first page.
func parseCursor(cursor string) (*storage.DocumentCursor, error) {
	if cursor == "" {
		return nil, nil
	}

	rawTime, rawID, ok := strings.Cut(cursor, cursorSeparator)
	if !ok {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
	}

	return &storage.DocumentCursor{CreatedAt: t, ID: domain.DocumentID(id)}, nil
}

// Delete purges the document's chunks from the vector store and soft-deletes
// the row. Purging first keeps the invariant that only visible documents have
// chunks; a failed soft delete leaves a document that can be deleted again.
func (i ingestor) Delete(ctx context.Context, userID domain.UserID, id domain.DocumentID) error {
	doc, err := i.storage.DocumentByID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("could not get document: %w", err)
	}
	if doc == nil {
		return serrors.With(serrors.ErrNotFound, "document not found")
	}

	if err := i.vectors.DeleteDocument(ctx, userID, id); err != nil {
		return fmt.Errorf("could not purge document chunks: %w", err)
	}

	if _, err := i.storage.DeleteDocument(ctx, userID, id); err != nil {
		return fmt.Errorf("could not delete document: %w", err)
	}

	return nil
}

// New creates a new Ingestor instance backed by the provided storage and
// vector store, configured with the given options.
func New(storage storage.Storage, vectors vectorstore.Store, options Options) Ingestor {
	return &ingestor{
		options: options,
		storage: storage,
		vectors: vectors,
	}
}
