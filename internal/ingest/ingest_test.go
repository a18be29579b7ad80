package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mmrag/internal/ingest"
	"mmrag/pkg/domain"
	"mmrag/pkg/serrors"
	"mmrag/pkg/storage"
	mockstorage "mmrag/pkg/storage/mock"
	mockvectorstore "mmrag/pkg/vectorstore/mock"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func newTestIngestor(t *testing.T) (*gomock.Controller, *mockstorage.MockStorage, *mockvectorstore.MockStore, ingest.Ingestor) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mockstorage.NewMockStorage(ctrl)
	vs := mockvectorstore.NewMockStore(ctrl)
	i := ingest.New(st, vs, ingest.Options{
		MaxAttempts:  3,
		MaxFileSize:  1 << 20,
		DedupeWindow: time.Hour,
	})

	return ctrl, st, vs, i
}

// helper to wire Storage.WithTx to execute callback with a MockAllStorage.
func expectWithTx(
	t *testing.T,
	ctrl *gomock.Controller,
	m *mockstorage.MockStorage,
	fn func(tx *mockstorage.MockAllStorage)) {
	t.Helper()

	m.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cb func(storage.AllStorage) error) error {
			tx := mockstorage.NewMockAllStorage(ctrl)
			if fn != nil {
				fn(tx)
			}

			return cb(tx)
		},
	)
}

func textUpload() ingest.Upload {
	return ingest.Upload{
		Name:     "notes.txt",
		MimeType: "text/plain; charset=utf-8",
		Payload:  []byte("hello world"),
	}
}

func TestIngestor_Upload_JobAdded(t *testing.T) {
	ctrl, st, _, i := newTestIngestor(t)

	userID := domain.UserID(uuid.New())

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().CompletedDocumentByHash(gomock.Any(), userID, gomock.Any(), gomock.Any()).
			Return(nil, nil)
		tx.EXPECT().StoreDocuments(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, docs ...domain.Document) ([]domain.Document, error) {
				if len(docs) != 1 {
					t.Fatalf("expected one document input")
				}
				if docs[0].Modality != domain.ModalityText {
					t.Fatalf("expected TEXT modality, got %s", docs[0].Modality)
				}
				if docs[0].Status != domain.DocumentStatusPending {
					t.Fatalf("expected status PENDING, got %s", docs[0].Status)
				}
				if docs[0].ContentHash == "" {
					t.Fatalf("expected content hash to be set")
				}
				ret := docs
				ret[0].ID = domain.DocumentID(uuid.New())

				return ret, nil
			},
		)
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).Return(true, nil)
	})

	doc, err := i.Upload(context.Background(), userID, textUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc == nil {
		t.Fatalf("expected document, got nil")
	}
	if doc.Status != domain.DocumentStatusPending {
		t.Fatalf("expected status PENDING, got %s", doc.Status)
	}
}

func TestIngestor_Upload_DedupeReusesExtraction(t *testing.T) {
	ctrl, st, _, i := newTestIngestor(t)

	userID := domain.UserID(uuid.New())
	previous := &domain.Document{
		Status:     domain.DocumentStatusCompleted,
		ChunkCount: 4,
		Extraction: domain.Extraction{
			Text:      "hello world",
			Extractor: "plaintext",
			Duration:  10 * time.Millisecond,
		},
	}

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().CompletedDocumentByHash(gomock.Any(), userID, gomock.Any(), gomock.Any()).
			Return(previous, nil)
		tx.EXPECT().StoreDocuments(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, docs ...domain.Document) ([]domain.Document, error) {
				if docs[0].Status != domain.DocumentStatusCompleted {
					t.Fatalf("expected status COMPLETED, got %s", docs[0].Status)
				}
				if docs[0].ChunkCount != 4 || docs[0].Extraction.Text != "hello world" {
					t.Fatalf("expected reused extraction")
				}
				ret := docs
				ret[0].ID = domain.DocumentID(uuid.New())

				return ret, nil
			},
		)
		// no AddJob expected
	})

	doc, err := i.Upload(context.Background(), userID, textUpload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != domain.DocumentStatusCompleted {
		t.Fatalf("expected status COMPLETED, got %s", doc.Status)
	}
}

func TestIngestor_Upload_Validation(t *testing.T) {
	_, _, _, i := newTestIngestor(t)
	userID := domain.UserID(uuid.New())

	cases := []struct {
		name string
		up   ingest.Upload
	}{
		{"empty name", ingest.Upload{MimeType: "text/plain", Payload: []byte("x")}},
		{"empty payload", ingest.Upload{Name: "a.txt", MimeType: "text/plain"}},
		{"oversized payload", ingest.Upload{Name: "a.txt", MimeType: "text/plain", Payload: make([]byte, (1<<20)+1)}},
		{"unsupported type", ingest.Upload{Name: "a.zip", MimeType: "application/zip", Payload: []byte("x")}},
		{"invalid content type", ingest.Upload{Name: "a.txt", MimeType: ";;", Payload: []byte("x")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := i.Upload(context.Background(), userID, tc.up)
			if !errors.Is(err, serrors.ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
		})
	}
}

func TestIngestor_Upload_StorageError(t *testing.T) {
	ctrl, st, _, i := newTestIngestor(t)
	userID := domain.UserID(uuid.New())

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().CompletedDocumentByHash(gomock.Any(), userID, gomock.Any(), gomock.Any()).
			Return(nil, nil)
		tx.EXPECT().StoreDocuments(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	})

	_, err := i.Upload(context.Background(), userID, textUpload())
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestIngestor_Document(t *testing.T) {
	_, st, _, i := newTestIngestor(t)
	userID := domain.UserID(uuid.New())
	id := domain.DocumentID(uuid.New())

	t.Run("found", func(t *testing.T) {
		st.EXPECT().DocumentByID(gomock.Any(), userID, id).Return(&domain.Document{ID: id}, nil)

		doc, err := i.Document(context.Background(), userID, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.ID != id {
			t.Fatalf("unexpected document")
		}
	})

	t.Run("not found", func(t *testing.T) {
		st.EXPECT().DocumentByID(gomock.Any(), userID, id).Return(nil, nil)

		_, err := i.Document(context.Background(), userID, id)
		if !errors.Is(err, serrors.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIngestor_UserDocuments_Cursor(t *testing.T) {
	_, st, _, i := newTestIngestor(t)
	userID := domain.UserID(uuid.New())

	t.Run("invalid cursor", func(t *testing.T) {
		cases := []string{
			"not-a-cursor",
			"2026-01-02T15:04:05Z", // timestamp half alone
			"2026-01-02T15:04:05Z,not-a-uuid",
		}
		for _, raw := range cases {
			_, _, err := i.UserDocuments(context.Background(), userID, "", raw, 10)
			if !errors.Is(err, serrors.ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest for %q, got %v", raw, err)
			}
		}
	})

	t.Run("cursor round trips", func(t *testing.T) {
		next := storage.DocumentCursor{
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
			ID:        domain.DocumentID(uuid.New()),
		}
		st.EXPECT().UserDocuments(gomock.Any(), userID, domain.DocumentStatus(""), gomock.Nil(), uint(10)).
			Return(storage.UserDocuments{
				Documents:  []domain.Document{{}},
				NextCursor: &next,
			}, nil)

		docs, cursor, err := i.UserDocuments(context.Background(), userID, "", "", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected one document")
		}
		if cursor == "" {
			t.Fatalf("expected next cursor")
		}

		// Feeding the returned cursor back must reconstruct the same position.
		st.EXPECT().UserDocuments(gomock.Any(), userID, domain.DocumentStatus(""), gomock.Any(), uint(10)).
			DoAndReturn(func(_ context.Context,
				_ domain.UserID,
				_ domain.DocumentStatus,
				cur *storage.DocumentCursor,
				_ uint) (storage.UserDocuments, error) {
				if cur == nil {
					t.Fatalf("expected decoded cursor")
				}
				if !cur.CreatedAt.Equal(next.CreatedAt) || cur.ID != next.ID {
					t.Fatalf("cursor did not round trip: %+v", cur)
				}

				return storage.UserDocuments{}, nil
			})

		if _, _, err := i.UserDocuments(context.Background(), userID, "", cursor, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestIngestor_Delete(t *testing.T) {
	userID := domain.UserID(uuid.New())
	id := domain.DocumentID(uuid.New())

	t.Run("purges vectors then soft deletes", func(t *testing.T) {
		_, st, vs, i := newTestIngestor(t)
		st.EXPECT().DocumentByID(gomock.Any(), userID, id).Return(&domain.Document{ID: id}, nil)
		vs.EXPECT().DeleteDocument(gomock.Any(), userID, id).Return(nil)
		st.EXPECT().DeleteDocument(gomock.Any(), userID, id).Return(&domain.Document{ID: id}, nil)

		if err := i.Delete(context.Background(), userID, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, st, _, i := newTestIngestor(t)
		st.EXPECT().DocumentByID(gomock.Any(), userID, id).Return(nil, nil)

		err := i.Delete(context.Background(), userID, id)
		if !errors.Is(err, serrors.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("vector purge failure aborts delete", func(t *testing.T) {
		_, st, vs, i := newTestIngestor(t)
		st.EXPECT().DocumentByID(gomock.Any(), userID, id).Return(&domain.Document{ID: id}, nil)
		vs.EXPECT().DeleteDocument(gomock.Any(), userID, id).Return(errors.New("boom"))

		if err := i.Delete(context.Background(), userID, id); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestDetectModality(t *testing.T) {
	cases := []struct {
		mime     string
		expected domain.Modality
	}{
		{"text/plain", domain.ModalityText},
		{"text/plain; charset=utf-8", domain.ModalityText},
		{"text/markdown", domain.ModalityText},
		{"application/pdf", domain.ModalityPDF},
		{"image/png", domain.ModalityImage},
		{"image/jpeg", domain.ModalityImage},
		{"audio/mpeg", domain.ModalityAudio},
		{"audio/wav", domain.ModalityAudio},
	}
	for _, tc := range cases {
		modality, _, err := ingest.DetectModality(tc.mime)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.mime, err)
		}
		if modality != tc.expected {
			t.Fatalf("expected %s for %q, got %s", tc.expected, tc.mime, modality)
		}
	}

	if _, _, err := ingest.DetectModality("video/mp4"); !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for video/mp4, got %v", err)
	}
}
