package ingest

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs contains the arguments for an ingestion job submitted to River.
// The document ID is the unique key, so a document can only have one active
// job at a time.
type JobArgs struct {
	// DocumentID identifies the document to ingest.
	DocumentID uuid.UUID `json:"document_id" river:"unique"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the ingest worker.
func (args JobArgs) Kind() string { return "IngestDocumentJob" }

// InsertOpts returns the River options that control how the job is enqueued,
// enforcing one active job per document.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
