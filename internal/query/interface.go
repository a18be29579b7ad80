package query

import (
	"context"

	"mmrag/pkg/domain"
)

// Request is one retrieval-augmented question.
type Request struct {
	// Question is the user's question in plain text.
	Question string
	// TopK overrides the default number of chunks retrieved; 0 uses the
	// configured default.
	TopK int
	// DocumentID, when set, restricts retrieval to a single document.
	DocumentID *domain.DocumentID
}

//go:generate mockgen -package mockquery -source=interface.go -destination=mock/mockquery.go *
type Querier interface {
	Answer(ctx context.Context, userID domain.UserID, req Request) (*domain.Answer, error)
}
