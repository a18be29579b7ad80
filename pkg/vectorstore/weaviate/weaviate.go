// Package weaviate implements vectorstore.Store backed by a Weaviate
// instance. Vectors are supplied by the application, so the class is created
// with the "none" vectorizer.
package weaviate

import (
	"context"
	"fmt"
	"strings"

	"mmrag/pkg/domain"
	"mmrag/pkg/vectorstore"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// Store talks to a Weaviate instance and fulfills the vectorstore.Store
// interface. It is safe for concurrent use.
type Store struct {
	client *weaviate.Client
	class  string
}

// Options configures a Weaviate store.
type Options struct {
	Host   string
	Scheme string // defaults to http
	APIKey string // empty disables authentication
	Class  string // defaults to DocumentChunk
}

// New constructs a Store. Call Init before indexing or searching.
func New(options Options) (*Store, error) {
	if options.Host == "" {
		return nil, fmt.Errorf("weaviate host is required")
	}
	if options.Scheme == "" {
		options.Scheme = "http"
	}
	if options.Class == "" {
		options.Class = "DocumentChunk"
	}

	var authConfig auth.Config
	if options.APIKey != "" {
		authConfig = auth.ApiKey{Value: options.APIKey}
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:       options.Host,
		Scheme:     options.Scheme,
		AuthConfig: authConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create weaviate client: %w", err)
	}

	return &Store{
		client: client,
		class:  options.Class,
	}, nil
}

// Init creates the chunk class when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	indexFilterable := true
	class := &models.Class{
		Class:       s.class,
		Description: "One embedded chunk of an ingested document",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "userId",
				DataType:        []string{"text"},
				IndexFilterable: &indexFilterable,
			},
			{
				Name:            "documentId",
				DataType:        []string{"text"},
				IndexFilterable: &indexFilterable,
			},
			{
				Name:     "documentName",
				DataType: []string{"text"},
			},
			{
				Name:     "seq",
				DataType: []string{"int"},
			},
			{
				Name:     "text",
				DataType: []string{"text"},
			},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}

		return fmt.Errorf("could not create class %q: %w", s.class, err)
	}

	return nil
}

// objectID derives a stable object ID from the document and sequence number
// so re-indexing a document overwrites its previous chunks.
func objectID(id domain.DocumentID, seq int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s:%d", uuid.UUID(id), seq)).String()
}

// IndexChunks writes chunk objects and their vectors in one batch.
func (s *Store) IndexChunks(ctx context.Context,
	userID domain.UserID,
	documentName string,
	chunks []vectorstore.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(chunks))
	for i, c := range chunks {
		objects[i] = &models.Object{
			Class: s.class,
			ID:    strfmt.UUID(objectID(c.Chunk.DocumentID, c.Chunk.Seq)),
			Properties: map[string]interface{}{
				"userId":       uuid.UUID(userID).String(),
				"documentId":   uuid.UUID(c.Chunk.DocumentID).String(),
				"documentName": documentName,
				"seq":          c.Chunk.Seq,
				"text":         c.Chunk.Text,
			},
			Vector: c.Vector,
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("could not batch index chunks: %w", err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("could not index chunk %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}

	return nil
}

// Search runs a near-vector query scoped to the user and maps certainty to
// the chunk score.
func (s *Store) Search(ctx context.Context,
	userID domain.UserID,
	vector []float32,
	params vectorstore.SearchParams) ([]domain.ScoredChunk, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	if params.MinScore > 0 {
		nearVector = nearVector.WithCertainty(float32(params.MinScore))
	}

	where := filters.Where().
		WithPath([]string{"userId"}).
		WithOperator(filters.Equal).
		WithValueText(uuid.UUID(userID).String())
	if params.DocumentID != nil {
		where = filters.Where().
			WithOperator(filters.And).
			WithOperands([]*filters.WhereBuilder{
				where,
				filters.Where().
					WithPath([]string{"documentId"}).
					WithOperator(filters.Equal).
					WithValueText(uuid.UUID(*params.DocumentID).String()),
			})
	}

	fields := []graphql.Field{
		{Name: "documentId"},
		{Name: "documentName"},
		{Name: "seq"},
		{Name: "text"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithNearVector(nearVector).
		WithWhere(where).
		WithFields(fields...).
		WithLimit(params.TopK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not search chunks: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("could not search chunks: %s", result.Errors[0].Message)
	}

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response shape")
	}
	items, ok := data[s.class].([]interface{})
	if !ok {
		return nil, nil
	}

	chunks := make([]domain.ScoredChunk, 0, len(items))
	for _, item := range items {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		sc, err := parseChunk(itemMap)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, sc)
	}

	return chunks, nil
}

func parseChunk(item map[string]interface{}) (domain.ScoredChunk, error) {
	var sc domain.ScoredChunk
	if idStr, ok := item["documentId"].(string); ok {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return sc, fmt.Errorf("could not parse chunk document id: %w", err)
		}
		sc.DocumentID = domain.DocumentID(id)
	}
	if name, ok := item["documentName"].(string); ok {
		sc.DocumentName = name
	}
	if seq, ok := item["seq"].(float64); ok {
		sc.Seq = int(seq)
	}
	if text, ok := item["text"].(string); ok {
		sc.Text = text
	}
	if additional, ok := item["_additional"].(map[string]interface{}); ok {
		if certainty, ok := additional["certainty"].(float64); ok {
			sc.Score = certainty
		}
	}

	return sc, nil
}

// DeleteDocument removes all chunk objects of one document via a batch
// delete.
func (s *Store) DeleteDocument(ctx context.Context, userID domain.UserID, id domain.DocumentID) error {
	where := filters.Where().WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{
		filters.Where().
			WithPath([]string{"userId"}).
			WithOperator(filters.Equal).
			WithValueText(uuid.UUID(userID).String()),
		filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueText(uuid.UUID(id).String()),
	})

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.class).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("could not delete document chunks: %w", err)
	}

	return nil
}

// Ensure Store conforms to the vectorstore.Store interface at compile time.
var _ vectorstore.Store = (*Store)(nil)
