package postgres

import (
	"context"
	"fmt"
	"time"

	"mmrag/pkg/domain"
	"mmrag/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const documentsTable = "documents"

// metaColumns lists every column except the payload, which only
// DocumentForIngest loads.
var metaColumns = []interface{}{ //nolint: gochecknoglobals
	"id", "user_id", "name", "modality", "mime_type", "status",
	"content_hash", "extracted_text", "extractor", "extract_millis",
	"chunk_count", "attempts", "last_error",
	"created_at", "updated_at", "deleted_at",
}

func (p *PgSQL) StoreDocuments(ctx context.Context, docs ...domain.Document) ([]domain.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var result []PgDocument
	if err := p.Builder.Insert(documentsTable).
		Rows(domainDocsToPg(docs)).
		Returning(metaColumns...).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store documents into pg: %w", err)
	}

	return pgDocsToDomain(result), nil
}

// DocumentByID returns a user's document without its payload, excluding
// soft-deleted rows.
func (p *PgSQL) DocumentByID(ctx context.Context,
	userID domain.UserID,
	id domain.DocumentID) (*domain.Document, error) {
	var row PgDocument
	found, err := p.Builder.From(documentsTable).
		Select(metaColumns...).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("user_id").Eq(uuid.UUID(userID)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch document by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// DocumentForIngest returns a document including its payload, regardless of
// owner. The worker uses it to load the bytes it processes.
func (p *PgSQL) DocumentForIngest(ctx context.Context, id domain.DocumentID) (*domain.Document, error) {
	var row PgDocument
	found, err := p.Builder.From(documentsTable).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch document for ingest: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// UpdateDocumentByID applies the provided updates to one document and returns
// the updated row. updated_at is always set; attempts is incremented when
// requested. With a Failed status and MaxAttempts > 0 the status only flips
// to Failed once attempts after increment reach MaxAttempts, otherwise it
// stays Pending so the queue can retry.
func (p *PgSQL) UpdateDocumentByID(ctx context.Context,
	id domain.DocumentID,
	updates storage.DocumentUpdates) (*domain.Document, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
	}
	if updates.IncrementAttempts {
		rec["attempts"] = goqu.L("attempts + 1")
	}
	if updates.Status != "" {
		if updates.Status == domain.DocumentStatusFailed && updates.MaxAttempts > 0 {
			increment := 0
			if updates.IncrementAttempts {
				increment = 1
			}
			rec["status"] = goqu.L("CASE WHEN attempts + ? >= ? THEN ? ELSE ? END",
				increment,
				updates.MaxAttempts,
				string(domain.DocumentStatusFailed),
				string(domain.DocumentStatusPending))
		} else {
			rec["status"] = string(updates.Status)
		}
	}
	if updates.Extraction != nil {
		rec["extracted_text"] = updates.Extraction.Text
		rec["extractor"] = updates.Extraction.Extractor
		rec["extract_millis"] = updates.Extraction.Duration.Milliseconds()
	}
	if updates.ChunkCount != nil {
		rec["chunk_count"] = *updates.ChunkCount
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}

	var row PgDocument
	found, err := p.Builder.Update(documentsTable).
		Set(rec).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("deleted_at").IsNull(),
		).
		Returning(metaColumns...).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update document in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// DeleteDocument soft-deletes a user's document by setting deleted_at and
// returns the deleted row.
func (p *PgSQL) DeleteDocument(ctx context.Context,
	userID domain.UserID,
	id domain.DocumentID) (*domain.Document, error) {
	var row PgDocument
	found, err := p.Builder.Update(documentsTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
		}).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("user_id").Eq(uuid.UUID(userID)),
			goqu.I("deleted_at").IsNull(),
		).
		Returning(metaColumns...).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete document in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}

// UserDocuments returns one page of a user's documents ordered by
// created_at DESC, id DESC, optionally filtered by status. The cursor filter
// matches the sort order so rows sharing a created_at timestamp across a page
// boundary are not skipped. One extra row is fetched to detect the next page.
func (p *PgSQL) UserDocuments(ctx context.Context,
	userID domain.UserID,
	status domain.DocumentStatus,
	cursor *storage.DocumentCursor,
	limit uint) (storage.UserDocuments, error) {
	w := []goqu.Expression{
		goqu.I("user_id").Eq(uuid.UUID(userID)),
		goqu.I("deleted_at").IsNull(),
	}
	if status != "" {
		w = append(w, goqu.I("status").Eq(string(status)))
	}
	if cursor != nil {
		w = append(w, goqu.Or(
			goqu.I("created_at").Lt(cursor.CreatedAt),
			goqu.And(
				goqu.I("created_at").Eq(cursor.CreatedAt),
				goqu.I("id").Lt(uuid.UUID(cursor.ID)),
			),
		))
	}

	var rows []PgDocument
	if err := p.Builder.From(documentsTable).
		Select(metaColumns...).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(limit + 1).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.UserDocuments{}, fmt.Errorf("could not fetch user documents from pg: %w", err)
	}

	var nextCursor *storage.DocumentCursor
	if uint(len(rows)) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = &storage.DocumentCursor{
			CreatedAt: last.CreatedAt,
			ID:        domain.DocumentID(last.ID),
		}
	}

	return storage.UserDocuments{
		Documents:  pgDocsToDomain(rows),
		NextCursor: nextCursor,
	}, nil
}

// CompletedDocumentByHash returns the user's most recent completed document
// with the given payload hash created after notBefore, or nil.
func (p *PgSQL) CompletedDocumentByHash(ctx context.Context,
	userID domain.UserID,
	contentHash string,
	notBefore time.Time) (*domain.Document, error) {
	var row PgDocument
	found, err := p.Builder.From(documentsTable).
		Select(metaColumns...).
		Where(
			goqu.I("user_id").Eq(uuid.UUID(userID)),
			goqu.I("content_hash").Eq(contentHash),
			goqu.I("status").Eq(string(domain.DocumentStatusCompleted)),
			goqu.I("created_at").Gte(notBefore),
			goqu.I("deleted_at").IsNull(),
		).
		Order(goqu.I("created_at").Desc()).
		Limit(1).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch completed document by hash: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain(), nil
}
