package tracker

import (
	"context"
	"time"

	"reelmate/internal/domain"
)

// estimatedProcessingTime is a fixed placeholder, not a model of render time.
const estimatedProcessingTime = 120 * time.Second

var progressByStatus = map[domain.JobStatus]int{
	domain.JobStatusPending:    0,
	domain.JobStatusProcessing: 50,
	domain.JobStatusCompleted:  100,
	domain.JobStatusFailed:     0,
	domain.JobStatusCancelled:  0,
}

// StatusView is the polling answer for one job.
type StatusView struct {
	ID                            string            `json:"id"`
	Status                        domain.JobStatus  `json:"status"`
	Progress                      int               `json:"progress"`
	EstimatedTimeRemainingSeconds *int              `json:"estimated_time_remaining_seconds,omitempty"`
	Output                        *domain.JobOutput `json:"output,omitempty"`
	Error                         string            `json:"error,omitempty"`
}

// Progress maps a status to its coarse progress percentage.
func Progress(s domain.JobStatus) int {
	return progressByStatus[s]
}

// Status loads the job and derives its StatusView.
func (t *Tracker) Status(ctx context.Context, jobID string) (*StatusView, error) {
	job, err := t.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return View(job, t.now()), nil
}

// View derives the StatusView of job at now. The estimate is only set while
// processing, output only when completed and error only when failed.
func View(job *domain.GenerationJob, now time.Time) *StatusView {
	v := &StatusView{
		ID:       job.ID,
		Status:   job.Status,
		Progress: Progress(job.Status),
	}
	switch job.Status {
	case domain.JobStatusProcessing:
		remaining := estimatedProcessingTime
		if job.ProcessingStartedAt != nil {
			remaining -= now.Sub(*job.ProcessingStartedAt)
		}
		secs := int(remaining.Seconds())
		if secs < 0 {
			secs = 0
		}
		v.EstimatedTimeRemainingSeconds = &secs
	case domain.JobStatusCompleted:
		if job.Output != nil {
			out := *job.Output
			v.Output = &out
		}
	case domain.JobStatusFailed:
		if job.ErrorMessage != nil {
			v.Error = *job.ErrorMessage
		}
	}
	return v
}
