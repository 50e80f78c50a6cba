// Package tracker drives generation jobs through their lifecycle: it accepts
// submissions, runs the text-to-speech and avatar render steps on a bounded
// worker pool and answers status polls.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelmate/internal/catalog"
	"reelmate/internal/domain"
	"reelmate/internal/events"
	"reelmate/internal/infra"
	"reelmate/internal/providers/avatar"
	"reelmate/internal/providers/tts"
	"reelmate/internal/storage"
)

const (
	defaultWorkers    = 4
	defaultQueueSize  = 64
	defaultJobTimeout = 10 * time.Minute
	// finalizeTimeout bounds the status write after a job's own context ended.
	finalizeTimeout = 10 * time.Second
	reclaimBatch    = 500
)

// Deps are the collaborators a Tracker drives.
type Deps struct {
	Repo    domain.JobRepository
	Catalog *catalog.Catalog
	Speech  tts.Synthesizer
	Avatars avatar.Renderer
	Store   *storage.FileStore
	Events  events.Publisher
	Logger  infra.Logger
}

type Option func(*Tracker)

func WithWorkers(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.queueSize = n
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.jobTimeout = d
		}
	}
}

// WithClock overrides time.Now, mainly for status estimates in tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Tracker owns the job lifecycle.
type Tracker struct {
	repo     domain.JobRepository
	catalog  *catalog.Catalog
	speech   tts.Synthesizer
	renderer avatar.Renderer
	store    *storage.FileStore
	events   events.Publisher
	logger   infra.Logger
	now      func() time.Time

	workers    int
	queueSize  int
	jobTimeout time.Duration
	pool       *pool

	mu      sync.Mutex
	running map[string]*activeRun
}

// activeRun is one in-flight attempt of a job in this process.
type activeRun struct {
	attempt int
	cancel  context.CancelFunc
}

// SubmitRequest carries the inputs of a new job. Callers validate it.
type SubmitRequest struct {
	UserID             string
	CampaignID         string
	Type               domain.JobType
	Script             string
	AvatarID           string
	VoiceID            string
	PromptTemplateID   string
	ToneSettings       json.RawMessage
	GenerationSettings domain.GenerationSettings
}

func New(deps Deps, opts ...Option) *Tracker {
	t := &Tracker{
		repo:       deps.Repo,
		catalog:    deps.Catalog,
		speech:     deps.Speech,
		renderer:   deps.Avatars,
		store:      deps.Store,
		events:     deps.Events,
		logger:     infra.Component(deps.Logger, "tracker"),
		now:        time.Now,
		workers:    defaultWorkers,
		queueSize:  defaultQueueSize,
		jobTimeout: defaultJobTimeout,
		running:    make(map[string]*activeRun),
	}
	if t.catalog == nil {
		t.catalog = catalog.Default()
	}
	if t.events == nil {
		t.events = events.Nop{}
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start launches the worker pool. Without it submitted jobs stay pending
// until another process sweeps them.
func (t *Tracker) Start() {
	if t.pool == nil {
		t.pool = newPool(t.Process, t.logger, t.workers, t.queueSize, t.jobTimeout)
	}
	t.pool.start()
	t.logger.Info().Int("workers", t.workers).Int("queue_size", t.queueSize).Msg("worker pool started")
}

// Shutdown stops accepting work and waits for running jobs to finish.
func (t *Tracker) Shutdown(ctx context.Context) error {
	if t.pool == nil {
		return nil
	}
	return t.pool.shutdown(ctx)
}

// Submit persists a pending job and hands it to the worker pool. It returns
// as soon as the record exists; a full queue leaves the job for the sweeper.
func (t *Tracker) Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationJob, error) {
	now := t.now().UTC()
	job := &domain.GenerationJob{
		ID:                 uuid.NewString(),
		UserID:             strings.TrimSpace(req.UserID),
		CampaignID:         strings.TrimSpace(req.CampaignID),
		Type:               req.Type,
		Status:             domain.JobStatusPending,
		Script:             req.Script,
		AvatarID:           strings.TrimSpace(req.AvatarID),
		VoiceID:            strings.TrimSpace(req.VoiceID),
		PromptTemplateID:   strings.TrimSpace(req.PromptTemplateID),
		ToneSettings:       req.ToneSettings,
		GenerationSettings: req.GenerationSettings,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if job.Type == "" {
		job.Type = domain.JobTypeAvatarVideo
	}
	if job.GenerationSettings.Quality == "" {
		job.GenerationSettings.Quality = domain.QualityStandard
	}
	if job.GenerationSettings.AspectRatio == "" {
		job.GenerationSettings.AspectRatio = "9:16"
	}
	if err := t.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	t.logger.Info().Str("job_id", job.ID).Str("user_id", job.UserID).Str("job_type", string(job.Type)).Msg("job submitted")
	t.publish(ctx, job, domain.JobStatusPending)
	t.dispatch(job.ID)
	return job, nil
}

// Get returns the stored job.
func (t *Tracker) Get(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	return t.repo.Get(ctx, jobID)
}

// List returns jobs matching filter, newest first.
func (t *Tracker) List(ctx context.Context, filter domain.JobFilter) ([]domain.GenerationJob, error) {
	return t.repo.List(ctx, filter)
}

// Cancel moves a pending or processing job to cancelled and aborts its
// in-flight provider calls when it runs in this process. A late completion
// of the aborted run cannot overwrite the cancellation.
func (t *Tracker) Cancel(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	now := t.now().UTC()
	job, err := t.transition(ctx, jobID, domain.JobUpdate{
		From:                  []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing},
		To:                    domain.JobStatusCancelled,
		ProcessingCompletedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	r, ok := t.running[jobID]
	t.mu.Unlock()
	if ok {
		r.cancel()
	}
	t.logger.Info().Str("job_id", jobID).Bool("in_flight", ok).Msg("job cancelled")
	return job, nil
}

// Retry resets a failed or cancelled job to pending and queues it again.
func (t *Tracker) Retry(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	job, err := t.transition(ctx, jobID, domain.JobUpdate{
		From:         []domain.JobStatus{domain.JobStatusFailed, domain.JobStatusCancelled},
		To:           domain.JobStatusPending,
		ClearResults: true,
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info().Str("job_id", jobID).Msg("job retried")
	t.dispatch(jobID)
	return job, nil
}

// Sweep queues pending jobs that are not yet waiting for a worker, oldest
// first, until the queue is full. It returns the number queued.
func (t *Tracker) Sweep(ctx context.Context) (int, error) {
	if t.pool == nil {
		return 0, errors.New("tracker: workers not started")
	}
	room := t.pool.capacity()
	if room == 0 {
		return 0, nil
	}
	jobs, err := t.repo.List(ctx, domain.JobFilter{Status: domain.JobStatusPending, Oldest: true, Limit: room})
	if err != nil {
		return 0, fmt.Errorf("list pending jobs: %w", err)
	}
	queued := 0
	for _, job := range jobs {
		if err := t.pool.enqueue(job.ID); err != nil {
			if errors.Is(err, domain.ErrQueueFull) {
				break
			}
			return queued, err
		}
		queued++
	}
	if queued > 0 {
		t.logger.Debug().Int("queued", queued).Msg("sweep queued pending jobs")
	}
	return queued, nil
}

// ReclaimStale returns processing jobs that started before cutoff and are not
// running in this process to pending, so a crashed worker's jobs run again.
func (t *Tracker) ReclaimStale(ctx context.Context, cutoff time.Time) (int, error) {
	jobs, err := t.repo.List(ctx, domain.JobFilter{Status: domain.JobStatusProcessing, Oldest: true, Limit: reclaimBatch})
	if err != nil {
		return 0, fmt.Errorf("list processing jobs: %w", err)
	}
	reclaimed := 0
	for _, job := range jobs {
		if job.ProcessingStartedAt == nil || !job.ProcessingStartedAt.Before(cutoff) || t.isRunning(job.ID) {
			continue
		}
		_, err := t.transition(ctx, job.ID, domain.JobUpdate{
			From:         []domain.JobStatus{domain.JobStatusProcessing},
			To:           domain.JobStatusPending,
			ClearResults: true,
			Attempt:      job.Attempt,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			return reclaimed, err
		}
		t.logger.Warn().Str("job_id", job.ID).Time("processing_started_at", *job.ProcessingStartedAt).Msg("reclaimed stale job")
		reclaimed++
	}
	return reclaimed, nil
}

func (t *Tracker) dispatch(jobID string) {
	if t.pool == nil {
		return
	}
	if err := t.pool.enqueue(jobID); err != nil {
		t.logger.Warn().Err(err).Str("job_id", jobID).Msg("job left pending for sweeper")
	}
}

func (t *Tracker) isRunning(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[jobID]
	return ok
}

// transition applies update and announces the new status.
func (t *Tracker) transition(ctx context.Context, jobID string, update domain.JobUpdate) (*domain.GenerationJob, error) {
	job, err := t.repo.Update(ctx, jobID, update)
	if err != nil {
		return nil, err
	}
	var previous domain.JobStatus
	if len(update.From) == 1 {
		previous = update.From[0]
	}
	t.publish(ctx, job, previous)
	return job, nil
}

func (t *Tracker) publish(ctx context.Context, job *domain.GenerationJob, previous domain.JobStatus) {
	if err := t.events.Publish(ctx, events.FromJob(job, previous)); err != nil {
		t.logger.Warn().Err(err).Str("job_id", job.ID).Str("status", string(job.Status)).Msg("publish lifecycle event failed")
	}
}
