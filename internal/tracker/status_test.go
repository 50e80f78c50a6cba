package tracker

import (
	"testing"
	"time"

	"reelmate/internal/domain"
)

func TestProgressMapping(t *testing.T) {
	cases := map[domain.JobStatus]int{
		domain.JobStatusPending:    0,
		domain.JobStatusProcessing: 50,
		domain.JobStatusCompleted:  100,
		domain.JobStatusFailed:     0,
		domain.JobStatusCancelled:  0,
	}
	for status, want := range cases {
		if got := View(&domain.GenerationJob{Status: status}, time.Now()).Progress; got != want {
			t.Fatalf("progress(%s) = %d, want %d", status, got, want)
		}
	}
}

func TestViewEstimateOnlyWhileProcessing(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}
	msg := "boom"
	cases := []struct {
		name    string
		job     domain.GenerationJob
		eta     int
		hasETA  bool
		output  bool
		errText string
	}{
		{name: "processing_early", job: domain.GenerationJob{Status: domain.JobStatusProcessing, ProcessingStartedAt: ago(30 * time.Second)}, eta: 90, hasETA: true},
		{name: "processing_overdue", job: domain.GenerationJob{Status: domain.JobStatusProcessing, ProcessingStartedAt: ago(5 * time.Minute)}, eta: 0, hasETA: true},
		{name: "pending", job: domain.GenerationJob{Status: domain.JobStatusPending}},
		{name: "completed", job: domain.GenerationJob{Status: domain.JobStatusCompleted, Output: &domain.JobOutput{VideoURL: "v"}}, output: true},
		{name: "failed", job: domain.GenerationJob{Status: domain.JobStatusFailed, ErrorMessage: &msg}, errText: "boom"},
		{name: "cancelled_hides_output", job: domain.GenerationJob{Status: domain.JobStatusCancelled, Output: &domain.JobOutput{VideoURL: "v"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := View(&tc.job, now)
			if (v.EstimatedTimeRemainingSeconds != nil) != tc.hasETA {
				t.Fatalf("estimate present = %v, want %v", v.EstimatedTimeRemainingSeconds != nil, tc.hasETA)
			}
			if tc.hasETA && *v.EstimatedTimeRemainingSeconds != tc.eta {
				t.Fatalf("estimate = %d, want %d", *v.EstimatedTimeRemainingSeconds, tc.eta)
			}
			if (v.Output != nil) != tc.output {
				t.Fatalf("output present = %v, want %v", v.Output != nil, tc.output)
			}
			if v.Error != tc.errText {
				t.Fatalf("error = %q, want %q", v.Error, tc.errText)
			}
		})
	}
}
