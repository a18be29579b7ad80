package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentID uniquely identifies an uploaded document.
// It wraps uuid.UUID to provide type safety at the domain layer.
type DocumentID uuid.UUID

// Modality describes the kind of content a document carries. It determines
// which extractor turns the raw payload into plain text during ingestion.
type Modality string

const (
	// ModalityText covers plain text and markdown payloads.
	ModalityText Modality = "TEXT"
	// ModalityPDF covers PDF payloads processed by the native text extractor.
	ModalityPDF Modality = "PDF"
	// ModalityImage covers image payloads processed through vision OCR.
	ModalityImage Modality = "IMAGE"
	// ModalityAudio covers audio payloads processed through transcription.
	ModalityAudio Modality = "AUDIO"
)

// DocumentStatus represents the ingestion lifecycle state of a document.
type DocumentStatus string

const (
	// DocumentStatusPending indicates the document is stored but not yet ingested.
	DocumentStatusPending DocumentStatus = "PENDING"
	// DocumentStatusCompleted indicates extraction, chunking and indexing finished.
	DocumentStatusCompleted DocumentStatus = "COMPLETED"
	// DocumentStatusFailed indicates ingestion gave up; see LastError and Attempts.
	DocumentStatusFailed DocumentStatus = "FAILED"
)

// Extraction holds the outcome of turning a document payload into plain text.
// Extractor and Duration are kept so different extractors can be compared
// against each other on real corpora.
type Extraction struct {
	// Text is the extracted plain-text content.
	Text string `json:"-"`
	// Extractor names the extractor implementation that produced Text.
	Extractor string `json:"extractor,omitempty"`
	// Duration is the wall-clock time the extraction took.
	Duration time.Duration `json:"duration,omitempty"`
	// Pages is the number of pages processed, when the format has pages.
	Pages int `json:"pages,omitempty"`
}

// Document represents a single uploaded document and its ingestion state.
type Document struct {
	// ID is the unique identifier of the document.
	ID DocumentID `json:"id"`
	// UserID is the identifier of the user who uploaded the document.
	UserID UserID `json:"userId"`

	// Name is the user-facing name, usually the uploaded filename.
	Name string `json:"name"`
	// Modality is the content kind detected at upload time.
	Modality Modality `json:"modality"`
	// MimeType is the payload content type as declared at upload.
	MimeType string `json:"mimeType"`
	// Status is the current ingestion lifecycle state.
	Status DocumentStatus `json:"status"`

	// ContentHash is the hex sha256 of the raw payload, used to reuse
	// ingestion results for byte-identical uploads.
	ContentHash string `json:"-"`
	// Payload holds the raw uploaded bytes. It is only populated on paths
	// that explicitly load it (upload, ingestion).
	Payload []byte `json:"-"`

	// Extraction describes how the text was produced; zero until completed.
	Extraction Extraction `json:"extraction"`
	// ChunkCount is the number of chunks indexed for this document.
	ChunkCount int `json:"chunkCount"`

	// Attempts is the number of ingestion attempts made so far.
	Attempts uint `json:"attempts"`
	// LastError stores the most recent ingestion error message, if any.
	LastError string `json:"-"`

	// CreatedAt is the time the document was uploaded.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time the document last changed state.
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt marks a soft delete; zero value means not deleted.
	DeletedAt time.Time `json:"-"`
}
