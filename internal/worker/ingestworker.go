package worker

import (
	"context"
	"errors"
	"fmt"
	"mmrag/internal/ingest"
	"mmrag/pkg/chunker"
	"mmrag/pkg/domain"
	"mmrag/pkg/extract"
	"mmrag/pkg/llm"
	"mmrag/pkg/logger"
	"mmrag/pkg/serrors"
	"mmrag/pkg/storage"
	"mmrag/pkg/vectorstore"
	"sync"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// defaultSnooze is used when a provider reports rate limiting without a
// usable reset time.
const defaultSnooze = 30 * time.Second

// IngestWorker is a River worker that runs the ingestion pipeline for one
// document per job: load the payload, extract text, chunk it, embed the
// chunks and index them in the vector store. It embeds River's WorkerDefaults
// to integrate with the job runtime and provides its own cooperative rate
// limiting around embedding provider calls.
//
// # Rate limiting overview
//
// The worker tracks the last known provider rate-limit status (lastRLStatus)
// and the number of embedding requests currently in flight
// (inFlightRequests). Before each embedding batch, reserveRL is called to
// "reserve" a slot from the current budget. The effective remaining budget is
// computed as:
//
//	remaining := lastRLStatus.Remaining
//	if now > lastRLStatus.ResetAt { remaining = lastRLStatus.Limit }
//
// A request is allowed to start if remaining - inFlightRequests > 0. This
// allows multiple concurrent requests as long as they do not exceed the
// Remaining budget. When there is no budget left, reserveRL waits until
// either:
//   - the ResetAt time is reached (budget replenishes to Limit), or
//   - another in-flight request finishes and signals requestFinishedChan.
//
// After a request completes, requestFinished is called with the
// llm.RateLimitStatus parsed from the response. It decrements the
// inFlightRequests counter, notifies any goroutines waiting in reserveRL by
// sending a message on requestFinishedChan (non-blocking), and updates
// lastRLStatus. The update strategy prefers the freshest ResetAt and the
// lowest Remaining to avoid optimistic races when multiple concurrent
// requests report slightly different views of the budget. If ResetAt changes,
// it is always adopted. Otherwise, Remaining is only replaced when it
// decreases, which is conservative and prevents overuse.
//
// Providers that expose no rate-limit headers return a status whose Known()
// is false; such statuses never change the limiter's view, so against those
// providers the limiter degrades to the bootstrap probe plus river's own
// MaxWorkers bound.
//
// Bootstrap behavior: At startup, before any provider call has returned a
// rate-limit status, lastRLStatus is initialized to a synthetic status with
// Limit=1, Remaining=1, and a far-future ResetAt. This permits exactly one
// request to go through so we can obtain real rate-limit headers. Subsequent
// requests use actual data.
//
// Concurrency safety: All rate-limit mutable state is guarded by mu. The
// requestFinishedChan is used as a wake-up signal for waiters without
// accumulating backpressure; send is non-blocking and dropped if no one is
// waiting.
//
// Error handling: Unsupported or corrupt payloads cancel the job and mark the
// document failed. Provider rate limiting snoozes the job until the reported
// reset time without burning an attempt. Other errors record the failure on
// the document and return, letting river retry; the document only flips to
// FAILED once its attempts are exhausted.
type IngestWorker struct {
	river.WorkerDefaults[ingest.JobArgs]

	storage   storage.Storage
	extractor *extract.Service
	chunker   *chunker.SentenceChunker
	embedder  llm.Embedder
	vectors   vectorstore.Store

	// maxAttempts mirrors the job's retry budget; it gates when a failing
	// document is marked FAILED instead of staying PENDING.
	maxAttempts int
	// embedBatchSize is the number of chunks sent per embedding request.
	embedBatchSize int

	// mu protects all fields below it: inFlightRequests and lastRLStatus.
	mu sync.Mutex
	// inFlightRequests counts how many embedding requests are currently
	// running. It is used in conjunction with lastRLStatus.Remaining to decide
	// if another request may start.
	inFlightRequests int
	// lastRLStatus stores the most recent view of the provider rate-limit
	// headers. It is updated after each request, preferring newer ResetAt and
	// lower Remaining to avoid optimistic races between concurrent requests.
	lastRLStatus *llm.RateLimitStatus
	// requestFinishedChan is a non-buffered notification channel used to wake
	// up goroutines waiting in reserveRL when any in-flight request completes.
	requestFinishedChan chan struct{}
}

// IngestWorkerOptions configures a new IngestWorker.
type IngestWorkerOptions struct {
	// MaxAttempts is the job retry budget; a failing document is only marked
	// FAILED once its attempts reach this threshold.
	MaxAttempts int
	// EmbedBatchSize is the number of chunks embedded per provider call.
	EmbedBatchSize int
}

// NewIngestWorker constructs an IngestWorker over the given pipeline stages.
// The returned worker enforces cooperative rate limiting across its
// concurrent jobs.
func NewIngestWorker(
	st storage.Storage,
	extractor *extract.Service,
	chk *chunker.SentenceChunker,
	embedder llm.Embedder,
	vectors vectorstore.Store,
	options IngestWorkerOptions) *IngestWorker {
	if options.EmbedBatchSize <= 0 {
		options.EmbedBatchSize = 32
	}

	return &IngestWorker{
		storage:             st,
		extractor:           extractor,
		chunker:             chk,
		embedder:            embedder,
		vectors:             vectors,
		maxAttempts:         options.MaxAttempts,
		embedBatchSize:      options.EmbedBatchSize,
		requestFinishedChan: make(chan struct{}),
	}
}

// Work runs the ingestion pipeline for a single document job.
func (w *IngestWorker) Work(ctx context.Context, job *river.Job[ingest.JobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.String("documentID", job.Args.DocumentID.String()))

	doc, err := w.storage.DocumentForIngest(ctx, domain.DocumentID(job.Args.DocumentID))
	if err != nil {
		logger.Error(ctx, "error loading document", zap.Error(err))

		return fmt.Errorf("could not load document: %w", err)
	}
	if doc == nil {
		// The document was deleted between enqueue and execution.
		return river.JobCancel(errors.New("document no longer exists")) //nolint: wrapcheck
	}
	if doc.Status != domain.DocumentStatusPending {
		logger.Info(ctx, "document is not pending, skipping",
			zap.String("status", string(doc.Status)))

		return nil
	}

	extraction, extractRL, err := w.extractor.Extract(ctx, doc)
	if err != nil {
		// Rate-limited transcription snoozes until the provider's reported
		// reset, not the default.
		return w.fail(ctx, doc.ID, fmt.Errorf("could not extract text: %w", err), extractRL)
	}

	chunks := w.chunker.Chunk(doc.ID, extraction.Text)
	if len(chunks) == 0 {
		return w.fail(ctx, doc.ID,
			serrors.With(serrors.ErrUnsupported, "document produced no chunks"), llm.RateLimitStatus{})
	}

	indexed := make([]vectorstore.IndexedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += w.embedBatchSize {
		end := min(start+w.embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		if err := w.reserveRL(ctx); err != nil {
			logger.Error(ctx, "error reserving rate limit", zap.Error(err))

			return fmt.Errorf("could not reserve rate limit: %w", err)
		}

		vecs, rlStatus, err := w.embedder.EmbedDocuments(ctx, texts)
		w.requestFinished(ctx, rlStatus)
		if err != nil {
			return w.fail(ctx, doc.ID, fmt.Errorf("could not embed chunks: %w", err), rlStatus)
		}

		for i, chunk := range batch {
			indexed = append(indexed, vectorstore.IndexedChunk{Chunk: chunk, Vector: vecs[i]})
		}
	}

	if err := w.vectors.IndexChunks(ctx, doc.UserID, doc.Name, indexed); err != nil {
		return w.fail(ctx, doc.ID, fmt.Errorf("could not index chunks: %w", err), llm.RateLimitStatus{})
	}

	chunkCount := len(chunks)
	clearError := ""
	if _, err := w.storage.UpdateDocumentByID(ctx, doc.ID, storage.DocumentUpdates{
		Status:     domain.DocumentStatusCompleted,
		Extraction: &extraction,
		ChunkCount: &chunkCount,
		LastError:  &clearError,
	}); err != nil {
		logger.Error(ctx, "error completing document", zap.Error(err))

		return fmt.Errorf("could not complete document: %w", err)
	}

	logger.Info(ctx, "document ingested",
		zap.String("extractor", extraction.Extractor),
		zap.Int("chunks", chunkCount))

	return nil
}

// fail maps a pipeline error to the appropriate river action and records it
// on the document. Rate limiting snoozes the job without touching the
// document. Unsupported payloads mark the document FAILED immediately and
// cancel the job. Everything else increments attempts, keeps the document
// PENDING until attempts run out and returns the error so river retries.
func (w *IngestWorker) fail(ctx context.Context, id domain.DocumentID, err error, rlStatus llm.RateLimitStatus) error {
	logger.Error(ctx, "error ingesting document", zap.Error(err))

	if errors.Is(err, serrors.ErrRateLimited) {
		dur := defaultSnooze
		if rlStatus.Known() {
			dur = time.Until(rlStatus.ResetAt)
			if dur < 0 {
				dur = 0
			}
		}

		return river.JobSnooze(dur) //nolint: wrapcheck
	}

	cancel := errors.Is(err, serrors.ErrUnsupported)

	lastError := err.Error()
	updates := storage.DocumentUpdates{
		Status:            domain.DocumentStatusFailed,
		LastError:         &lastError,
		IncrementAttempts: true,
	}
	if !cancel {
		// Only flip to FAILED when this attempt exhausts the budget.
		updates.MaxAttempts = w.maxAttempts
	}

	if _, uerr := w.storage.UpdateDocumentByID(ctx, id, updates); uerr != nil {
		logger.Error(ctx, "error recording document failure", zap.Error(uerr))
	}

	if cancel {
		return river.JobCancel(err) //nolint: wrapcheck
	}

	return err
}

// requestFinished is called after every embedding attempt. It decrements the
// in-flight counter, notifies any goroutines waiting to reserve rate limit,
// and updates the last known rate-limit status using a conservative merge
// strategy to avoid races between concurrent requests.
func (w *IngestWorker) requestFinished(ctx context.Context, newRLStatus llm.RateLimitStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlightRequests > 0 {
		w.inFlightRequests--
	} else {
		// Defensive clamp: avoid negative values in case of unexpected sequencing.
		w.inFlightRequests = 0
	}

	// If other goroutines are blocked in reserveRL, try to wake exactly one
	// without blocking this goroutine. If no one is waiting, the signal is
	// dropped.
	select {
	case w.requestFinishedChan <- struct{}{}:
	default:
	}

	// If the call didn't return any RL info, don't change our view.
	if !newRLStatus.Known() {
		return
	}

	log := func() {
		logger.Debug(ctx, "received rate limit status",
			zap.Int("limit", newRLStatus.Limit),
			zap.Int("remaining", newRLStatus.Remaining),
			zap.Time("resetAt", newRLStatus.ResetAt),
			zap.Int("inFlight", w.inFlightRequests))
	}

	// First observation: adopt it unconditionally.
	if w.lastRLStatus == nil {
		w.lastRLStatus = &newRLStatus
		log()

		return
	}

	// If ResetAt changed, always adopt the new window.
	if !w.lastRLStatus.ResetAt.Equal(newRLStatus.ResetAt) {
		w.lastRLStatus = &newRLStatus
		log()

		return
	}

	// Otherwise prefer the lower Remaining to stay conservative under
	// concurrency.
	if newRLStatus.Remaining < w.lastRLStatus.Remaining {
		w.lastRLStatus = &newRLStatus
		log()
	}
}

// reserveRL reserves one unit from the rate-limit budget or blocks until a
// unit becomes available. It implements the cooperative rate limiting
// described in the type-level comment:
//  1. On first use, initialize a synthetic RL state to allow a single probe
//     request to gather real headers.
//  2. Compute effective remaining budget; if we've passed ResetAt, Remaining
//     is treated as Limit.
//  3. If remaining - inFlightRequests > 0, increment inFlightRequests and
//     return.
//  4. Otherwise, wait until either ResetAt elapses or any in-flight request
//     completes (signaled via requestFinishedChan), then retry.
//
// If ctx is canceled while waiting, an error is returned.
func (w *IngestWorker) reserveRL(ctx context.Context) error {
	for {
		w.mu.Lock()

		if w.lastRLStatus == nil {
			// At startup allow one request to get feedback from the provider.
			w.lastRLStatus = &llm.RateLimitStatus{
				Limit:     1,
				Remaining: 1,
				// Far-future reset so the first reservation doesn't unblock
				// due to a timer; we'll replace this with real headers soon.
				ResetAt: time.Now().Add(365 * 24 * time.Hour),
			}
		}

		remaining := w.lastRLStatus.Remaining
		// If the reset time has passed, treat the full limit as remaining.
		if time.Now().UTC().After(w.lastRLStatus.ResetAt) {
			remaining = w.lastRLStatus.Limit
		}

		// If budget remains once we account for in-flight requests, reserve
		// and go.
		if remaining-w.inFlightRequests > 0 {
			logger.Debug(ctx, "reserved rate limit slot",
				zap.Int("remaining", remaining),
				zap.Int("limit", w.lastRLStatus.Limit),
				zap.Time("resetAt", w.lastRLStatus.ResetAt),
				zap.Int("inFlight", w.inFlightRequests))
			w.inFlightRequests++
			w.mu.Unlock()

			return nil
		}

		// Otherwise, wait for either the reset time (if in the future) or for
		// any request to finish, then retry.
		resetAt := w.lastRLStatus.ResetAt
		w.mu.Unlock()

		logger.Debug(ctx, "waiting for rate limit slot",
			zap.Int("remaining", remaining),
			zap.Int("inFlight", w.inFlightRequests))

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for rate limit: %w", ctx.Err())
		case <-w.requestFinishedChan:
			// loop to re-evaluate
			continue
		case <-time.After(time.Until(resetAt)):
			// Reset window elapsed; loop and try again.
			continue
		}
	}
}
