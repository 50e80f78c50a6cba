package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelmate/internal/domain"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteJobColumns = `id, user_id, campaign_id, job_type, status, script, avatar_id, voice_id,
    prompt_template_id, tone_settings, generation_settings,
    output_video_url, output_audio_url, thumbnail_url, duration_seconds, file_size_bytes, cost,
    error_message, processing_started_at, processing_completed_at, created_at, updated_at, attempt`

// JobRepositorySQLite implements domain.JobRepository on a single-owner
// SQLite file. Timestamps are stored as fixed-width UTC text.
type JobRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteJobRepository creates the schema if needed and returns the repository.
func NewSQLiteJobRepository(ctx context.Context, db *sql.DB) (*JobRepositorySQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	// Files created before attempts were tracked lack the column.
	if _, err := db.ExecContext(ctx, `ALTER TABLE generation_jobs ADD COLUMN attempt INTEGER NOT NULL DEFAULT 0`); err != nil &&
		!strings.Contains(err.Error(), "duplicate column name") {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return &JobRepositorySQLite{db: db, now: time.Now}, nil
}

func (r *JobRepositorySQLite) Create(ctx context.Context, job *domain.GenerationJob) error {
	settings, err := json.Marshal(job.GenerationSettings)
	if err != nil {
		return fmt.Errorf("encode generation settings: %w", err)
	}
	created := formatTime(job.CreatedAt)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO generation_jobs (id, user_id, campaign_id, job_type, status, script, avatar_id, voice_id,
            prompt_template_id, tone_settings, generation_settings, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, job.CampaignID, string(job.Type), string(job.Status), job.Script,
		job.AvatarID, job.VoiceID, job.PromptTemplateID, string(jsonOrEmpty(job.ToneSettings)),
		string(settings), created, created,
	)
	if err != nil {
		return fmt.Errorf("insert generation job: %w", err)
	}
	return nil
}

func (r *JobRepositorySQLite) Get(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteJobColumns+` FROM generation_jobs WHERE id = ?`, jobID)
	job, err := scanSQLiteJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select generation job: %w", err)
	}
	return job, nil
}

func (r *JobRepositorySQLite) List(ctx context.Context, filter domain.JobFilter) ([]domain.GenerationJob, error) {
	order := "DESC"
	if filter.Oldest {
		order = "ASC"
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteJobColumns+` FROM generation_jobs
         WHERE (? = '' OR user_id = ?) AND (? = '' OR campaign_id = ?) AND (? = '' OR status = ?)
         ORDER BY created_at `+order+`, id `+order+`
         LIMIT ?`,
		filter.UserID, filter.UserID,
		filter.CampaignID, filter.CampaignID,
		string(filter.Status), string(filter.Status),
		clampLimit(filter.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list generation jobs: %w", err)
	}
	defer rows.Close()
	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanSQLiteJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *JobRepositorySQLite) Update(ctx context.Context, jobID string, update domain.JobUpdate) (*domain.GenerationJob, error) {
	return swapLoop(ctx, jobID, update, r.now, r.Get, r.swap)
}

func (r *JobRepositorySQLite) swap(ctx context.Context, job *domain.GenerationJob, expected domain.JobStatus, expectedAttempt int) (bool, error) {
	args := []any{string(job.Status)}
	args = append(args, outputArgs(job)...)
	args = append(args,
		job.ErrorMessage,
		formatTimePtr(job.ProcessingStartedAt),
		formatTimePtr(job.ProcessingCompletedAt),
		formatTime(job.UpdatedAt),
		job.Attempt,
		job.ID,
		string(expected),
		expectedAttempt,
	)
	res, err := r.db.ExecContext(ctx,
		`UPDATE generation_jobs
         SET status = ?, output_video_url = ?, output_audio_url = ?, thumbnail_url = ?,
             duration_seconds = ?, file_size_bytes = ?, cost = ?, error_message = ?,
             processing_started_at = ?, processing_completed_at = ?, updated_at = ?, attempt = ?
         WHERE id = ? AND status = ? AND attempt = ?`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update generation job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update generation job: %w", err)
	}
	return n == 1, nil
}

func scanSQLiteJob(row rowScanner) (*domain.GenerationJob, error) {
	var (
		job        domain.GenerationJob
		jobType    string
		status     string
		tone       string
		settings   string
		videoURL   sql.NullString
		audioURL   sql.NullString
		thumbURL   sql.NullString
		duration   sql.NullInt64
		size       sql.NullInt64
		cost       sql.NullFloat64
		errMessage sql.NullString
		started    sql.NullString
		completed  sql.NullString
		created    string
		updated    string
	)
	if err := row.Scan(
		&job.ID, &job.UserID, &job.CampaignID, &jobType, &status, &job.Script,
		&job.AvatarID, &job.VoiceID, &job.PromptTemplateID, &tone, &settings,
		&videoURL, &audioURL, &thumbURL, &duration, &size, &cost,
		&errMessage, &started, &completed, &created, &updated, &job.Attempt,
	); err != nil {
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	if tone != "" {
		job.ToneSettings = json.RawMessage(tone)
	}
	if settings != "" {
		if err := json.Unmarshal([]byte(settings), &job.GenerationSettings); err != nil {
			return nil, fmt.Errorf("decode generation settings: %w", err)
		}
	}
	if videoURL.Valid {
		job.Output = &domain.JobOutput{
			VideoURL:        videoURL.String,
			AudioURL:        audioURL.String,
			ThumbnailURL:    thumbURL.String,
			DurationSeconds: int(duration.Int64),
			FileSizeBytes:   size.Int64,
			Cost:            cost.Float64,
		}
	}
	if errMessage.Valid {
		msg := errMessage.String
		job.ErrorMessage = &msg
	}
	var err error
	if job.ProcessingStartedAt, err = parseTimePtr(started); err != nil {
		return nil, err
	}
	if job.ProcessingCompletedAt, err = parseTimePtr(completed); err != nil {
		return nil, err
	}
	if job.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &job, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", v.String, err)
	}
	return &t, nil
}
