package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reelmate/internal/domain"
)

type getFunc func(ctx context.Context, jobID string) (*domain.GenerationJob, error)

// swapFunc writes job only if the stored status and attempt still equal
// the values that were read.
type swapFunc func(ctx context.Context, job *domain.GenerationJob, expected domain.JobStatus, expectedAttempt int) (bool, error)

// swapLoop reads the job, checks the transition, and writes it back guarded
// by the status and attempt that were read. A lost race re-reads and
// re-checks, so a concurrent writer that moved the job out of update.From
// wins.
func swapLoop(ctx context.Context, jobID string, update domain.JobUpdate, now func() time.Time, get getFunc, swap swapFunc) (*domain.GenerationJob, error) {
	for try := 0; try < maxSwapAttempts; try++ {
		current, err := get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if !update.Permits(current) {
			if update.Attempt != 0 && current.Attempt != update.Attempt {
				return current, fmt.Errorf("%w: attempt %d superseded by %d", domain.ErrInvalidTransition, update.Attempt, current.Attempt)
			}
			return current, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, update.To)
		}
		expected, expectedAttempt := current.Status, current.Attempt
		update.Apply(current, now())
		ok, err := swap(ctx, current, expected, expectedAttempt)
		if err != nil {
			return nil, err
		}
		if ok {
			return current, nil
		}
	}
	return nil, fmt.Errorf("update job %s: too much contention", jobID)
}

func outputArgs(job *domain.GenerationJob) []any {
	if job.Output == nil {
		return []any{nil, nil, nil, nil, nil, nil}
	}
	o := job.Output
	return []any{o.VideoURL, o.AudioURL, o.ThumbnailURL, int32(o.DurationSeconds), o.FileSizeBytes, o.Cost}
}

func jsonOrEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
