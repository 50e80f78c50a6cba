package domain

import "context"

// JobRepository defines persistence for generation jobs.
//
// Update is a compare-and-swap on the job status: it returns
// ErrInvalidTransition when the stored status is not in JobUpdate.From and
// ErrNotFound when the job does not exist. Implementations must return the
// job as stored after the update.
type JobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	Get(ctx context.Context, jobID string) (*GenerationJob, error)
	List(ctx context.Context, filter JobFilter) ([]GenerationJob, error)
	Update(ctx context.Context, jobID string, update JobUpdate) (*GenerationJob, error)
}
