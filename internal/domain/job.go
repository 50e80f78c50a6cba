package domain

import (
	"encoding/json"
	"time"
)

// JobType enumerates supported generation job categories. The type selects the
// base price in the cost model.
type JobType string

const (
	JobTypeAIGenerated JobType = "ai-generated"
	JobTypeAvatarVideo JobType = "avatar-video"
	JobTypeVoiceover   JobType = "voiceover"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further processing happens in this status.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Quality enumerates render quality tiers.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHD       Quality = "hd"
	Quality4K       Quality = "4k"
)

// GenerationSettings carries render options. Unknown keys supplied by the
// client are preserved in Extra.
type GenerationSettings struct {
	Quality     Quality        `json:"quality,omitempty"`
	AspectRatio string         `json:"aspect_ratio,omitempty"`
	Background  string         `json:"background,omitempty"`
	Extra       map[string]any `json:"-"`
}

// JobOutput holds the artifacts of a completed job.
type JobOutput struct {
	VideoURL        string  `json:"video_url"`
	AudioURL        string  `json:"audio_url"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	DurationSeconds int     `json:"duration_seconds"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	Cost            float64 `json:"cost"`
}

// GenerationJob tracks one request to produce a generated video.
//
// Output fields are populated only on completion and ErrorMessage only on
// failure; a job never carries both.
type GenerationJob struct {
	ID                    string
	UserID                string
	CampaignID            string
	Type                  JobType
	Status                JobStatus
	// Attempt counts claims; each pending -> processing claim increments it.
	Attempt               int
	Script                string
	AvatarID              string
	VoiceID               string
	PromptTemplateID      string
	ToneSettings          json.RawMessage
	GenerationSettings    GenerationSettings
	Output                *JobOutput
	ErrorMessage          *string
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Clone returns a deep copy so callers can mutate without aliasing storage.
func (j *GenerationJob) Clone() *GenerationJob {
	if j == nil {
		return nil
	}
	out := *j
	out.ToneSettings = append(json.RawMessage(nil), j.ToneSettings...)
	if j.GenerationSettings.Extra != nil {
		out.GenerationSettings.Extra = make(map[string]any, len(j.GenerationSettings.Extra))
		for k, v := range j.GenerationSettings.Extra {
			out.GenerationSettings.Extra[k] = v
		}
	}
	if j.Output != nil {
		o := *j.Output
		out.Output = &o
	}
	if j.ErrorMessage != nil {
		msg := *j.ErrorMessage
		out.ErrorMessage = &msg
	}
	if j.ProcessingStartedAt != nil {
		t := *j.ProcessingStartedAt
		out.ProcessingStartedAt = &t
	}
	if j.ProcessingCompletedAt != nil {
		t := *j.ProcessingCompletedAt
		out.ProcessingCompletedAt = &t
	}
	return &out
}

// JobFilter narrows List queries. Zero values are ignored.
type JobFilter struct {
	UserID     string
	CampaignID string
	Status     JobStatus
	Limit      int
	// Oldest orders by creation time ascending instead of newest first.
	Oldest bool
}

// JobUpdate describes a status transition applied by a repository. The update
// only lands when the stored status is one of From; an empty From applies
// unconditionally.
type JobUpdate struct {
	From                  []JobStatus
	To                    JobStatus
	Output                *JobOutput
	ErrorMessage          *string
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	// ClearResults drops outputs, error message and both timestamps before
	// the fields above are applied.
	ClearResults bool
	// Attempt, when non-zero, restricts the update to the job's current
	// attempt so a superseded run cannot write to a retried job.
	Attempt int
	// NextAttempt increments the job's attempt counter.
	NextAttempt bool
}
