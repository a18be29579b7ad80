package domain

import "github.com/google/uuid"

// UserID identifies the owner of documents and queries. Documents are only
// ever visible to the user who uploaded them.
type UserID uuid.UUID
