// Package v1handler implements the v1 HTTP API: document upload and
// lifecycle plus retrieval-augmented queries.
package v1handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mmrag/internal/ingest"
	"mmrag/internal/query"
	"mmrag/pkg/logger"
	"mmrag/pkg/serrors"

	"go.uber.org/zap"
)

// DefaultLimit is the page size used when a list request has no limit.
const DefaultLimit = 20

// timeFormat is the timestamp layout used on the wire.
const timeFormat = time.RFC3339

// Deps carries the services the handlers delegate to.
type Deps struct {
	Ingestor ingest.Ingestor
	Querier  query.Querier

	// MaxUploadBytes caps the upload request body before multipart parsing
	// buffers it. Zero disables the cap.
	MaxUploadBytes int64
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Register mounts the v1 routes on mux. Every route handler is wrapped with
// mw, which carries authentication and per-route metrics.
func (h *Handler) Register(mux *http.ServeMux, mw func(http.Handler) http.Handler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw(fn))
	}

	route("POST /v1/documents", h.CreateDocument)
	route("GET /v1/documents", h.ListDocuments)
	route("GET /v1/documents/{id}", h.GetDocument)
	route("DELETE /v1/documents/{id}", h.DeleteDocument)
	route("POST /v1/query", h.Query)
}

// errorResponse is the JSON error body shared by all v1 endpoints.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(ctx, "could not encode response", zap.Error(err))
	}
}

// writeError maps err's semantic kind to a status code and writes the JSON
// error body. Unclassified errors become opaque 500s so internals never leak.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := serrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))
		writeJSON(ctx, w, status, errorResponse{Error: errorBody{
			Kind:    serrors.ErrInternal.Error(),
			Message: "internal error",
		}})

		return
	}

	body := errorBody{Message: err.Error()}
	if k := kindOf(err); k != nil {
		body.Kind = k.Error()
	}

	writeJSON(ctx, w, status, errorResponse{Error: body})
}

// kindOf extracts the semantic kind from an error chain, nil when absent.
func kindOf(err error) serrors.Kind {
	var serr *serrors.Error
	if errors.As(err, &serr) && serr.Kind() != nil {
		return serr.Kind()
	}

	return nil
}
