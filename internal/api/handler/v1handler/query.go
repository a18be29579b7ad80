package v1handler

import (
	"encoding/json"
	"net/http"

	"mmrag/internal/query"
	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"

	"github.com/google/uuid"
)

// queryRequest is the POST /v1/query body.
type queryRequest struct {
	Question   string `json:"question"`
	TopK       int    `json:"topK,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

type citationResponse struct {
	DocumentID   string  `json:"documentId"`
	DocumentName string  `json:"documentName"`
	ChunkSeq     int     `json:"chunkSeq"`
	Score        float64 `json:"score"`
}

type answerResponse struct {
	Text      string             `json:"text"`
	Model     string             `json:"model"`
	Citations []citationResponse `json:"citations"`
}

// Query answers a question over the user's indexed documents.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body"))

		return
	}

	queryReq := query.Request{
		Question: req.Question,
		TopK:     req.TopK,
	}
	if req.DocumentID != "" {
		id, err := uuid.Parse(req.DocumentID)
		if err != nil {
			writeError(ctx, w, serrors.Wrap(serrors.ErrBadRequest, err, "invalid document ID"))

			return
		}
		docID := domain.DocumentID(id)
		queryReq.DocumentID = &docID
	}

	answer, err := h.deps.Querier.Answer(ctx, GetUserIDFromContext(ctx), queryReq)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	citations := make([]citationResponse, 0, len(answer.Citations))
	for _, c := range answer.Citations {
		citations = append(citations, citationResponse{
			DocumentID:   uuid.UUID(c.DocumentID).String(),
			DocumentName: c.DocumentName,
			ChunkSeq:     c.ChunkSeq,
			Score:        c.Score,
		})
	}

	writeJSON(ctx, w, http.StatusOK, answerResponse{
		Text:      answer.Text,
		Model:     answer.Model,
		Citations: citations,
	})
}
