package v1handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"mmrag/internal/ingest"
	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"

	"github.com/google/uuid"
)

// maxUploadMemory bounds how much of a multipart upload is held in memory
// before spilling to disk.
const maxUploadMemory = 8 << 20

// uploadSlack is body headroom on top of MaxUploadBytes for multipart framing
// and the name field.
const uploadSlack = 64 << 10

// documentResponse is the wire representation of a document.
type documentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Modality   string `json:"modality"`
	MimeType   string `json:"mimeType"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	LastError  string `json:"lastError,omitempty"`
	Extractor  string `json:"extractor,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	ChunkCount int    `json:"chunkCount"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

func domainDocumentToV1(in *domain.Document) documentResponse {
	out := documentResponse{
		ID:         uuid.UUID(in.ID).String(),
		Name:       in.Name,
		Modality:   string(in.Modality),
		MimeType:   in.MimeType,
		Status:     string(in.Status),
		Attempts:   int(in.Attempts), //nolint: gosec
		LastError:  in.LastError,
		Extractor:  in.Extraction.Extractor,
		Pages:      in.Extraction.Pages,
		ChunkCount: in.ChunkCount,
		CreatedAt:  in.CreatedAt.Format(timeFormat),
	}
	if !in.UpdatedAt.IsZero() {
		out.UpdatedAt = in.UpdatedAt.Format(timeFormat)
	}

	return out
}

// CreateDocument accepts a multipart upload (file part plus optional name
// field) and schedules it for ingestion.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Cap the body before parsing so an oversized upload is cut off instead
	// of fully buffered.
	if h.deps.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes+uploadSlack)
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(ctx, w, serrors.With(serrors.ErrBadRequest,
				"upload exceeds the %d byte limit", h.deps.MaxUploadBytes))

			return
		}
		writeError(ctx, w, serrors.Wrap(serrors.ErrBadRequest, err, "invalid multipart request"))

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, serrors.Wrap(serrors.ErrBadRequest, err, "missing file part"))

		return
	}
	defer func() { _ = file.Close() }()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("could not read upload: %w", err))

		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	doc, err := h.deps.Ingestor.Upload(ctx, GetUserIDFromContext(ctx), ingest.Upload{
		Name:     name,
		MimeType: header.Header.Get("Content-Type"),
		Payload:  payload,
	})
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusCreated, domainDocumentToV1(doc))
}

// GetDocument returns one document by ID.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseDocumentID(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	doc, err := h.deps.Ingestor.Document(ctx, GetUserIDFromContext(ctx), id)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusOK, domainDocumentToV1(doc))
}

// documentListResponse is one page of documents.
type documentListResponse struct {
	Items      []documentResponse `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

// ListDocuments returns a cursor-paginated page of the user's documents,
// optionally filtered by status.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := uint(DefaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed == 0 {
			writeError(ctx, w, serrors.With(serrors.ErrBadRequest, "invalid limit %q", raw))

			return
		}
		limit = uint(parsed)
	}

	docs, nextCursor, err := h.deps.Ingestor.UserDocuments(ctx,
		GetUserIDFromContext(ctx),
		domain.DocumentStatus(r.URL.Query().Get("status")),
		r.URL.Query().Get("cursor"),
		limit)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	items := make([]documentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, domainDocumentToV1(&docs[i]))
	}

	writeJSON(ctx, w, http.StatusOK, documentListResponse{
		Items:      items,
		NextCursor: nextCursor,
	})
}

// DeleteDocument soft-deletes a document and purges its chunks.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseDocumentID(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	if err := h.deps.Ingestor.Delete(ctx, GetUserIDFromContext(ctx), id); err != nil {
		writeError(ctx, w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseDocumentID(r *http.Request) (domain.DocumentID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return domain.DocumentID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid document ID")
	}

	return domain.DocumentID(id), nil
}
