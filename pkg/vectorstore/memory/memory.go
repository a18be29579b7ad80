// Package memory implements vectorstore.Store as an in-process brute-force
// cosine similarity index. It backs development setups and tests where no
// Weaviate instance is available.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"mmrag/pkg/domain"
	"mmrag/pkg/vectorstore"
)

type entry struct {
	userID       domain.UserID
	documentName string
	chunk        domain.Chunk
	vector       []float32
}

// Store keeps every chunk vector in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []entry
}

// New constructs an empty Store.
func New() *Store {
	return &Store{}
}

// Init is a no-op; the in-memory index needs no schema.
func (s *Store) Init(ctx context.Context) error {
	return nil
}

// IndexChunks stores chunk vectors, replacing earlier entries for the same
// document and sequence number.
func (s *Store) IndexChunks(ctx context.Context,
	userID domain.UserID,
	documentName string,
	chunks []vectorstore.IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		e := entry{
			userID:       userID,
			documentName: documentName,
			chunk:        c.Chunk,
			vector:       c.Vector,
		}

		replaced := false
		for i := range s.entries {
			if s.entries[i].chunk.DocumentID == c.Chunk.DocumentID && s.entries[i].chunk.Seq == c.Chunk.Seq {
				s.entries[i] = e
				replaced = true

				break
			}
		}
		if !replaced {
			s.entries = append(s.entries, e)
		}
	}

	return nil
}

// Search scans all of the user's entries and returns the topK by certainty,
// (1+cosine)/2, so scores and MinScore mean the same thing as against
// Weaviate.
func (s *Store) Search(ctx context.Context,
	userID domain.UserID,
	vector []float32,
	params vectorstore.SearchParams) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []domain.ScoredChunk
	for _, e := range s.entries {
		if e.userID != userID {
			continue
		}
		if params.DocumentID != nil && e.chunk.DocumentID != *params.DocumentID {
			continue
		}

		score := certainty(e.vector, vector)
		if params.MinScore > 0 && score < params.MinScore {
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk:        e.chunk,
			DocumentName: e.documentName,
			Score:        score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if params.TopK > 0 && len(scored) > params.TopK {
		scored = scored[:params.TopK]
	}

	return scored, nil
}

// DeleteDocument drops every entry of the given document.
func (s *Store) DeleteDocument(ctx context.Context, userID domain.UserID, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.userID == userID && e.chunk.DocumentID == id {
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept

	return nil
}

// certainty maps cosine similarity into [0, 1].
func certainty(a, b []float32) float64 {
	return (1 + cosine(a, b)) / 2
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Ensure Store conforms to the vectorstore.Store interface at compile time.
var _ vectorstore.Store = (*Store)(nil)
