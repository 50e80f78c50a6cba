// pkg/schema/events.go
package schema

// SubjectPrefix prefixes every lifecycle subject; the status is appended,
// e.g. "reelmate.jobs.completed".
const SubjectPrefix = "reelmate.jobs."

type JobOutput struct {
	VideoURL        string  `json:"video_url"`
	AudioURL        string  `json:"audio_url"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	DurationSeconds int     `json:"duration_seconds"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
	Cost            float64 `json:"cost"`
}

type JobLifecycleEvent struct {
	JobID          string     `json:"job_id"`
	UserID         string     `json:"user_id"`
	CampaignID     string     `json:"campaign_id,omitempty"`
	JobType        string     `json:"job_type"`
	Status         string     `json:"status"`
	PreviousStatus string     `json:"previous_status,omitempty"`
	Output         *JobOutput `json:"output,omitempty"`
	Error          string     `json:"error,omitempty"`
	ProcessingMs   int64      `json:"processing_ms,omitempty"`
	HappenedAt     int64      `json:"happened_at"`
}
