package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage is the minimal interface for enqueueing background jobs. When
// called on a transactional handle the insert participates in the surrounding
// transaction and only becomes visible on commit.
type JobStorage interface {
	// AddJob enqueues a job with the given arguments. The boolean result is
	// false when the insert was skipped because an identical unique job
	// already exists.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
