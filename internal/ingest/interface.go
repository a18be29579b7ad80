package ingest

import (
	"context"

	"mmrag/pkg/domain"
)

// Upload is one document submitted for ingestion.
type Upload struct {
	// Name is the user-facing document name, typically the filename.
	Name string
	// MimeType is the declared content type; it determines the modality.
	MimeType string
	// Payload is the raw file content.
	Payload []byte
}

//go:generate mockgen -package mockingest -source=interface.go -destination=mock/mockingest.go *
type Ingestor interface {
	Upload(ctx context.Context, userID domain.UserID, up Upload) (*domain.Document, error)
	Document(ctx context.Context, userID domain.UserID, id domain.DocumentID) (*domain.Document, error)
	UserDocuments(ctx context.Context,
		userID domain.UserID,
		status domain.DocumentStatus,
		cursor string,
		limit uint) ([]domain.Document, string, error)
	Delete(ctx context.Context, userID domain.UserID, id domain.DocumentID) error
}
