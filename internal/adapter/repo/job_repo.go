package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reelmate/internal/domain"
	"reelmate/internal/infra"
	"reelmate/internal/sqlinline"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxSwapAttempts  = 5
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
	now func() time.Time
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql, now: time.Now}
}

// EnsureSchema creates the tables the repository depends on.
func (r *JobRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QCreateGenerationJobsSchema); err != nil {
		return fmt.Errorf("create generation_jobs schema: %w", err)
	}
	return nil
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.GenerationJob) error {
	settings, err := json.Marshal(job.GenerationSettings)
	if err != nil {
		return fmt.Errorf("encode generation settings: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertGenerationJob,
		job.ID,
		job.UserID,
		job.CampaignID,
		string(job.Type),
		string(job.Status),
		job.Script,
		job.AvatarID,
		job.VoiceID,
		job.PromptTemplateID,
		jsonOrEmpty(job.ToneSettings),
		settings,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation job: %w", err)
	}
	return nil
}

// Get fetches a job by its identifier.
func (r *JobRepositoryPG) Get(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectGenerationJob, jobID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select generation job: %w", err)
	}
	return job, nil
}

// List returns jobs matching filter, newest first unless Oldest is set.
func (r *JobRepositoryPG) List(ctx context.Context, filter domain.JobFilter) ([]domain.GenerationJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListGenerationJobs,
		filter.UserID,
		filter.CampaignID,
		string(filter.Status),
		clampLimit(filter.Limit),
		filter.Oldest,
	)
	if err != nil {
		return nil, fmt.Errorf("list generation jobs: %w", err)
	}
	defer rows.Close()
	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Update applies update with a compare-and-swap on the stored status.
func (r *JobRepositoryPG) Update(ctx context.Context, jobID string, update domain.JobUpdate) (*domain.GenerationJob, error) {
	return swapLoop(ctx, jobID, update, r.now, r.Get, r.swap)
}

func (r *JobRepositoryPG) swap(ctx context.Context, job *domain.GenerationJob, expected domain.JobStatus, expectedAttempt int) (bool, error) {
	args := append([]any{job.ID, string(expected), string(job.Status)}, outputArgs(job)...)
	args = append(args, job.ErrorMessage, job.ProcessingStartedAt, job.ProcessingCompletedAt, job.UpdatedAt,
		job.Attempt, expectedAttempt)
	tag, err := r.sql.Exec(ctx, sqlinline.QSwapGenerationJob, args...)
	if err != nil {
		return false, fmt.Errorf("update generation job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.GenerationJob, error) {
	var (
		job        domain.GenerationJob
		jobType    string
		status     string
		tone       []byte
		settings   []byte
		videoURL   *string
		audioURL   *string
		thumbURL   *string
		duration   *int32
		size       *int64
		cost       *float64
		errMessage *string
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.CampaignID,
		&jobType,
		&status,
		&job.Script,
		&job.AvatarID,
		&job.VoiceID,
		&job.PromptTemplateID,
		&tone,
		&settings,
		&videoURL,
		&audioURL,
		&thumbURL,
		&duration,
		&size,
		&cost,
		&errMessage,
		&job.ProcessingStartedAt,
		&job.ProcessingCompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.Attempt,
	); err != nil {
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.ErrorMessage = errMessage
	if len(tone) > 0 {
		job.ToneSettings = json.RawMessage(tone)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &job.GenerationSettings); err != nil {
			return nil, fmt.Errorf("decode generation settings: %w", err)
		}
	}
	if videoURL != nil {
		out := &domain.JobOutput{VideoURL: *videoURL}
		if audioURL != nil {
			out.AudioURL = *audioURL
		}
		if thumbURL != nil {
			out.ThumbnailURL = *thumbURL
		}
		if duration != nil {
			out.DurationSeconds = int(*duration)
		}
		if size != nil {
			out.FileSizeBytes = *size
		}
		if cost != nil {
			out.Cost = *cost
		}
		job.Output = out
	}
	return &job, nil
}
