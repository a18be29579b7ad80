package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mmrag/internal/ingest"
	"mmrag/internal/worker"
	"mmrag/pkg/chunker"
	"mmrag/pkg/domain"
	"mmrag/pkg/extract"
	"mmrag/pkg/llm"
	mockllm "mmrag/pkg/llm/mock"
	"mmrag/pkg/logger"
	"mmrag/pkg/serrors"
	"mmrag/pkg/storage"
	mockstorage "mmrag/pkg/storage/mock"
	mockvectorstore "mmrag/pkg/vectorstore/mock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func makeJob(id int64, docID uuid.UUID) *river.Job[ingest.JobArgs] {
	return &river.Job[ingest.JobArgs]{
		JobRow: &rivertype.JobRow{ID: id},
		Args:   ingest.JobArgs{DocumentID: docID},
	}
}

func pendingTextDocument(id uuid.UUID, payload string) *domain.Document {
	return &domain.Document{
		ID:       domain.DocumentID(id),
		UserID:   domain.UserID(uuid.New()),
		Name:     "notes.txt",
		Modality: domain.ModalityText,
		MimeType: "text/plain",
		Status:   domain.DocumentStatusPending,
		Payload:  []byte(payload),
	}
}

type testWorker struct {
	storage  *mockstorage.MockStorage
	embedder *mockllm.MockEmbedder
	vectors  *mockvectorstore.MockStore
	worker   *worker.IngestWorker
}

func newTestWorker(t *testing.T, options worker.IngestWorkerOptions) *testWorker {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mockstorage.NewMockStorage(ctrl)
	embedder := mockllm.NewMockEmbedder(ctrl)
	vectors := mockvectorstore.NewMockStore(ctrl)

	return &testWorker{
		storage:  st,
		embedder: embedder,
		vectors:  vectors,
		worker: worker.NewIngestWorker(st, extract.New(nil, nil),
			chunker.NewSentenceChunker(6, 1), embedder, vectors, options),
	}
}

func TestIngestWorker_Work_Success(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "Alpha beats beta. Gamma follows.")

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)

	rl := llm.RateLimitStatus{Limit: 100, Remaining: 99, ResetAt: time.Now().Add(time.Minute)}
	tw.embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
			vecs := make([][]float32, len(texts))
			for i := range texts {
				vecs[i] = []float32{0.1, 0.2}
			}

			return vecs, rl, nil
		})

	tw.vectors.EXPECT().IndexChunks(gomock.Any(), doc.UserID, doc.Name, gomock.Any()).Return(nil)

	tw.storage.EXPECT().UpdateDocumentByID(gomock.Any(), doc.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.DocumentID, updates storage.DocumentUpdates) (*domain.Document, error) {
			require.Equal(t, domain.DocumentStatusCompleted, updates.Status)
			require.NotNil(t, updates.Extraction)
			require.Equal(t, "plaintext", updates.Extraction.Extractor)
			require.NotNil(t, updates.ChunkCount)
			require.Equal(t, 1, *updates.ChunkCount)
			require.NotNil(t, updates.LastError)
			require.Empty(t, *updates.LastError)
			require.False(t, updates.IncrementAttempts)

			return doc, nil
		})

	require.NoError(t, tw.worker.Work(context.Background(), makeJob(1, docID)))
}

func TestIngestWorker_Work_BatchesEmbeddings(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3, EmbedBatchSize: 2})
	// One sentence per chunk so the payload below yields three chunks.
	tw.worker = worker.NewIngestWorker(tw.storage, extract.New(nil, nil),
		chunker.NewSentenceChunker(1, 0), tw.embedder, tw.vectors,
		worker.IngestWorkerOptions{MaxAttempts: 3, EmbedBatchSize: 2})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "One. Two. Three.")

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)

	rl := llm.RateLimitStatus{Limit: 100, Remaining: 99, ResetAt: time.Now().Add(time.Minute)}
	var batchSizes []int
	tw.embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
			batchSizes = append(batchSizes, len(texts))
			vecs := make([][]float32, len(texts))
			for i := range texts {
				vecs[i] = []float32{1}
			}

			return vecs, rl, nil
		})

	tw.vectors.EXPECT().IndexChunks(gomock.Any(), doc.UserID, doc.Name, gomock.Len(3)).Return(nil)
	tw.storage.EXPECT().UpdateDocumentByID(gomock.Any(), doc.ID, gomock.Any()).Return(doc, nil)

	require.NoError(t, tw.worker.Work(context.Background(), makeJob(2, docID)))
	require.Equal(t, []int{2, 1}, batchSizes)
}

func TestIngestWorker_Work_MissingDocumentCancels(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), domain.DocumentID(docID)).Return(nil, nil)

	err := tw.worker.Work(context.Background(), makeJob(3, docID))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestIngestWorker_Work_NonPendingSkipped(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "Already done.")
	doc.Status = domain.DocumentStatusCompleted

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)

	require.NoError(t, tw.worker.Work(context.Background(), makeJob(4, docID)))
}

func TestIngestWorker_Work_UnsupportedPayloadCancelsAndFails(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "\xff\xfe broken")

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)
	tw.storage.EXPECT().UpdateDocumentByID(gomock.Any(), doc.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.DocumentID, updates storage.DocumentUpdates) (*domain.Document, error) {
			require.Equal(t, domain.DocumentStatusFailed, updates.Status)
			require.NotNil(t, updates.LastError)
			require.NotEmpty(t, *updates.LastError)
			require.True(t, updates.IncrementAttempts)
			// Unsupported payloads fail unconditionally, no attempts guard.
			require.Zero(t, updates.MaxAttempts)

			return doc, nil
		})

	err := tw.worker.Work(context.Background(), makeJob(5, docID))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.ErrorAs(t, err, &cancelErr)
}

func TestIngestWorker_Work_RateLimitedSnoozes(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "Some text to embed.")

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)

	resetAt := time.Now().Add(1500 * time.Millisecond)
	rl := llm.RateLimitStatus{Limit: 100, Remaining: 0, ResetAt: resetAt}
	tw.embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).
		Return(nil, rl, serrors.With(serrors.ErrRateLimited, "provider rl"))

	// No UpdateDocumentByID expected: rate limiting does not burn an attempt.
	err := tw.worker.Work(context.Background(), makeJob(6, docID))
	require.Error(t, err)
	var snoozeErr *river.JobSnoozeError
	require.ErrorAs(t, err, &snoozeErr)
	// Duration should be around time.Until(resetAt)
	require.GreaterOrEqual(t, snoozeErr.Duration, 1200*time.Millisecond)
	require.LessOrEqual(t, snoozeErr.Duration, 2*time.Second)
}

func TestIngestWorker_Work_TranscriptionRateLimitSnoozesUntilReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mockstorage.NewMockStorage(ctrl)
	embedder := mockllm.NewMockEmbedder(ctrl)
	vectors := mockvectorstore.NewMockStore(ctrl)
	tr := mockllm.NewMockTranscriber(ctrl)

	w := worker.NewIngestWorker(st, extract.New(nil, tr),
		chunker.NewSentenceChunker(6, 1), embedder, vectors,
		worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "")
	doc.Name = "memo.mp3"
	doc.Modality = domain.ModalityAudio
	doc.MimeType = "audio/mpeg"
	doc.Payload = []byte("fake-mp3")

	st.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)

	resetAt := time.Now().Add(1500 * time.Millisecond)
	rl := llm.RateLimitStatus{Limit: 10, Remaining: 0, ResetAt: resetAt}
	tr.EXPECT().Transcribe(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", rl, serrors.With(serrors.ErrRateLimited, "provider rl"))

	// No UpdateDocumentByID expected: the snooze must not burn an attempt.
	err := w.Work(context.Background(), makeJob(8, docID))
	require.Error(t, err)
	var snoozeErr *river.JobSnoozeError
	require.ErrorAs(t, err, &snoozeErr)
	// The reported reset drives the snooze, not the 30s default.
	require.GreaterOrEqual(t, snoozeErr.Duration, 1200*time.Millisecond)
	require.LessOrEqual(t, snoozeErr.Duration, 2*time.Second)
}

func TestIngestWorker_Work_GenericErrorRecordsAttempt(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docID := uuid.New()
	doc := pendingTextDocument(docID, "Some text to embed.")

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), doc.ID).Return(doc, nil)

	rl := llm.RateLimitStatus{Limit: 100, Remaining: 99, ResetAt: time.Now().Add(time.Minute)}
	tw.embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).
		Return(nil, rl, errors.New("boom"))

	tw.storage.EXPECT().UpdateDocumentByID(gomock.Any(), doc.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.DocumentID, updates storage.DocumentUpdates) (*domain.Document, error) {
			require.Equal(t, domain.DocumentStatusFailed, updates.Status)
			require.True(t, updates.IncrementAttempts)
			// The attempts guard keeps the document PENDING until retries run out.
			require.Equal(t, 3, updates.MaxAttempts)

			return doc, nil
		})

	err := tw.worker.Work(context.Background(), makeJob(7, docID))
	require.Error(t, err)
	var cancelErr *river.JobCancelError
	require.NotErrorAs(t, err, &cancelErr, "did not expect JobCancelError")
	var snoozeErr *river.JobSnoozeError
	require.NotErrorAs(t, err, &snoozeErr, "did not expect JobSnoozeError")
}

func TestIngestWorker_CooperativeRateLimit_BlocksSecondUntilFirstFinishes(t *testing.T) {
	tw := newTestWorker(t, worker.IngestWorkerOptions{MaxAttempts: 3})

	docAID := uuid.New()
	docA := pendingTextDocument(docAID, "First document.")
	docBID := uuid.New()
	docB := pendingTextDocument(docBID, "Second document.")

	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), docA.ID).Return(docA, nil)
	tw.storage.EXPECT().DocumentForIngest(gomock.Any(), docB.ID).Return(docB, nil)

	firstEmbedStart := make(chan struct{})
	allowFirstToFinish := make(chan struct{})
	secondEmbedStarted := make(chan struct{})

	// First embedding blocks until we allow it to finish.
	tw.embedder.EXPECT().EmbedDocuments(gomock.Any(), []string{"First document."}).
		DoAndReturn(func(ctx context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
			close(firstEmbedStart)
			<-allowFirstToFinish

			return [][]float32{{1}},
				llm.RateLimitStatus{Limit: 1, Remaining: 1, ResetAt: time.Now().Add(time.Minute)}, nil
		})
	// Second embedding should not run until the first finishes and
	// requestFinished wakes it.
	tw.embedder.EXPECT().EmbedDocuments(gomock.Any(), []string{"Second document."}).
		DoAndReturn(func(ctx context.Context, texts []string) ([][]float32, llm.RateLimitStatus, error) {
			close(secondEmbedStarted)

			return [][]float32{{1}},
				llm.RateLimitStatus{Limit: 1, Remaining: 1, ResetAt: time.Now().Add(time.Minute)}, nil
		})

	tw.vectors.EXPECT().IndexChunks(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).AnyTimes()
	tw.storage.EXPECT().UpdateDocumentByID(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(docA, nil).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Start first work which should proceed immediately.
	go func() { _ = tw.worker.Work(ctx, makeJob(10, docAID)) }()
	// Wait until the first embedding has started.
	<-firstEmbedStart

	// Start second work, which should block before embedding due to RL.
	go func() { _ = tw.worker.Work(ctx, makeJob(11, docBID)) }()

	// Ensure the second embedding does NOT start within 100ms while the first
	// is still running.
	select {
	case <-secondEmbedStarted:
		t.Fatal("second embedding started before first finished; RL not enforced")
	case <-time.After(100 * time.Millisecond):
		// expected: still blocked
	}

	// Now let the first embedding finish; this should wake the waiter and
	// allow the second to start.
	close(allowFirstToFinish)

	select {
	case <-secondEmbedStarted:
		// success
	case <-time.After(2 * time.Second):
		t.Fatal("second embedding did not start after first finished")
	}
}
