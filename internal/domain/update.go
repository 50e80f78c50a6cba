package domain

import "time"

// Allows reports whether the update may be applied to a job in status s.
func (u JobUpdate) Allows(s JobStatus) bool {
	if len(u.From) == 0 {
		return true
	}
	for _, from := range u.From {
		if from == s {
			return true
		}
	}
	return false
}

// Permits reports whether the update may be applied to job: its status must
// be allowed and, when the update names an attempt, job must still be on it.
func (u JobUpdate) Permits(job *GenerationJob) bool {
	if u.Attempt != 0 && job.Attempt != u.Attempt {
		return false
	}
	return u.Allows(job.Status)
}

// Apply mutates job in place. Completion drops any error message and failure
// drops any output so the two never coexist.
func (u JobUpdate) Apply(job *GenerationJob, now time.Time) {
	if u.ClearResults {
		job.Output = nil
		job.ErrorMessage = nil
		job.ProcessingStartedAt = nil
		job.ProcessingCompletedAt = nil
	}
	job.Status = u.To
	if u.NextAttempt {
		job.Attempt++
	}
	if u.Output != nil {
		out := *u.Output
		job.Output = &out
	}
	if u.ErrorMessage != nil {
		msg := *u.ErrorMessage
		job.ErrorMessage = &msg
	}
	if u.ProcessingStartedAt != nil {
		t := *u.ProcessingStartedAt
		job.ProcessingStartedAt = &t
	}
	if u.ProcessingCompletedAt != nil {
		t := *u.ProcessingCompletedAt
		job.ProcessingCompletedAt = &t
	}
	switch u.To {
	case JobStatusCompleted:
		job.ErrorMessage = nil
	case JobStatusFailed:
		job.Output = nil
	}
	job.UpdatedAt = now
}
