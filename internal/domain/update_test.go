package domain

import (
	"testing"
	"time"
)

func TestJobUpdateAllows(t *testing.T) {
	u := JobUpdate{From: []JobStatus{JobStatusPending, JobStatusProcessing}, To: JobStatusCancelled}
	if !u.Allows(JobStatusProcessing) {
		t.Fatal("expected processing to be allowed")
	}
	if u.Allows(JobStatusCompleted) {
		t.Fatal("expected completed to be rejected")
	}
	if !(JobUpdate{To: JobStatusCancelled}).Allows(JobStatusCompleted) {
		t.Fatal("empty From should allow every status")
	}
}

func TestJobUpdateApplyKeepsOutputAndErrorExclusive(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := "tts: boom"
	job := &GenerationJob{Status: JobStatusProcessing, Output: &JobOutput{VideoURL: "v"}}

	JobUpdate{To: JobStatusFailed, ErrorMessage: &msg}.Apply(job, now)
	if job.Output != nil {
		t.Fatal("failed job must not carry output")
	}
	if job.ErrorMessage == nil || *job.ErrorMessage != msg {
		t.Fatalf("ErrorMessage = %v, want %q", job.ErrorMessage, msg)
	}

	job.Status = JobStatusProcessing
	JobUpdate{To: JobStatusCompleted, Output: &JobOutput{VideoURL: "v"}}.Apply(job, now)
	if job.ErrorMessage != nil {
		t.Fatal("completed job must not carry an error message")
	}
	if !job.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %s, want %s", job.UpdatedAt, now)
	}
}

func TestJobUpdateApplyClearResults(t *testing.T) {
	now := time.Now()
	msg := "boom"
	job := &GenerationJob{
		Status:                JobStatusFailed,
		ErrorMessage:          &msg,
		ProcessingStartedAt:   &now,
		ProcessingCompletedAt: &now,
	}
	JobUpdate{To: JobStatusPending, ClearResults: true}.Apply(job, now)
	if job.Status != JobStatusPending || job.ErrorMessage != nil || job.ProcessingStartedAt != nil || job.ProcessingCompletedAt != nil {
		t.Fatalf("job not reset: %+v", job)
	}
}

func TestJobUpdatePermitsChecksAttempt(t *testing.T) {
	finish := JobUpdate{From: []JobStatus{JobStatusProcessing}, To: JobStatusCompleted, Attempt: 1}
	if !finish.Permits(&GenerationJob{Status: JobStatusProcessing, Attempt: 1}) {
		t.Fatal("expected the claimed attempt to be permitted")
	}
	if finish.Permits(&GenerationJob{Status: JobStatusProcessing, Attempt: 2}) {
		t.Fatal("expected a superseded attempt to be rejected")
	}
	unbound := JobUpdate{From: []JobStatus{JobStatusProcessing}, To: JobStatusCancelled}
	if !unbound.Permits(&GenerationJob{Status: JobStatusProcessing, Attempt: 7}) {
		t.Fatal("an update without an attempt should ignore the counter")
	}
}

func TestJobUpdateApplyNextAttempt(t *testing.T) {
	job := &GenerationJob{Status: JobStatusPending, Attempt: 1}
	JobUpdate{To: JobStatusProcessing, NextAttempt: true}.Apply(job, time.Now())
	if job.Attempt != 2 {
		t.Fatalf("Attempt = %d, want 2", job.Attempt)
	}
}
