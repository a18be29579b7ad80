package postgres

import (
	"database/sql"
	"time"

	"mmrag/pkg/domain"

	"github.com/google/uuid"
)

// PgDocument is the goqu row model for the documents table.
type PgDocument struct {
	ID     uuid.UUID `db:"id"      goqu:"skipinsert"`
	UserID uuid.UUID `db:"user_id"`

	Name     string `db:"name"`
	Modality string `db:"modality"`
	MimeType string `db:"mime_type"`
	Status   string `db:"status"`

	ContentHash string `db:"content_hash"`
	Payload     []byte `db:"payload"`

	// Extraction columns are written on insert too: deduplicated uploads are
	// stored COMPLETED carrying the reused extraction.
	ExtractedText sql.NullString `db:"extracted_text"`
	Extractor     sql.NullString `db:"extractor"`
	ExtractMillis sql.NullInt64  `db:"extract_millis"`
	ChunkCount    int            `db:"chunk_count"`

	Attempts  uint           `db:"attempts"   goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

// ToDomain converts the row into a domain document. The payload is carried
// over only when it was selected.
func (p *PgDocument) ToDomain() *domain.Document {
	return &domain.Document{
		ID:          domain.DocumentID(p.ID),
		UserID:      domain.UserID(p.UserID),
		Name:        p.Name,
		Modality:    domain.Modality(p.Modality),
		MimeType:    p.MimeType,
		Status:      domain.DocumentStatus(p.Status),
		ContentHash: p.ContentHash,
		Payload:     p.Payload,
		Extraction: domain.Extraction{
			Text:      p.ExtractedText.String,
			Extractor: p.Extractor.String,
			Duration:  time.Duration(p.ExtractMillis.Int64) * time.Millisecond,
		},
		ChunkCount: p.ChunkCount,
		Attempts:   p.Attempts,
		LastError:  p.LastError.String,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt.Time,
		DeletedAt:  p.DeletedAt.Time,
	}
}

// FromDomain fills the row model from a domain document.
func (p *PgDocument) FromDomain(doc domain.Document) {
	*p = PgDocument{
		ID:          uuid.UUID(doc.ID),
		UserID:      uuid.UUID(doc.UserID),
		Name:        doc.Name,
		Modality:    string(doc.Modality),
		MimeType:    doc.MimeType,
		Status:      string(doc.Status),
		ContentHash: doc.ContentHash,
		Payload:     doc.Payload,
		ExtractedText: sql.NullString{
			String: doc.Extraction.Text,
			Valid:  doc.Extraction.Text != "",
		},
		Extractor: sql.NullString{
			String: doc.Extraction.Extractor,
			Valid:  doc.Extraction.Extractor != "",
		},
		ExtractMillis: sql.NullInt64{
			Int64: doc.Extraction.Duration.Milliseconds(),
			Valid: doc.Extraction.Duration > 0,
		},
		ChunkCount: doc.ChunkCount,
		Attempts:   doc.Attempts,
		LastError: sql.NullString{
			String: doc.LastError,
			Valid:  doc.LastError != "",
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: sql.NullTime{Time: doc.UpdatedAt, Valid: !doc.UpdatedAt.IsZero()},
		DeletedAt: sql.NullTime{Time: doc.DeletedAt, Valid: !doc.DeletedAt.IsZero()},
	}
}

func domainDocsToPg(docs []domain.Document) []PgDocument {
	out := make([]PgDocument, len(docs))
	for i := range out {
		out[i].FromDomain(docs[i])
	}

	return out
}

func pgDocsToDomain(rows []PgDocument) []domain.Document {
	out := make([]domain.Document, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}

	return out
}
