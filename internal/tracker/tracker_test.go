package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"reelmate/internal/adapter/repo"
	"reelmate/internal/domain"
	"reelmate/internal/infra"
	"reelmate/internal/providers/avatar"
	"reelmate/internal/providers/tts"
	"reelmate/internal/storage"
	"reelmate/pkg/schema"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []schema.JobLifecycleEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, evt schema.JobLifecycleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingPublisher) Close() {}

func (r *recordingPublisher) statuses(jobID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, evt := range r.events {
		if evt.JobID == jobID {
			out = append(out, evt.Status)
		}
	}
	return out
}

type failingRenderer struct{ err error }

func (f failingRenderer) Render(ctx context.Context, req avatar.RenderRequest) (*avatar.Render, error) {
	return nil, f.err
}

// blockingRenderer parks in Render until released. With honorCtx it returns
// as soon as the context ends instead.
type blockingRenderer struct {
	started  chan struct{}
	release  chan struct{}
	honorCtx bool
	sawErr   chan error
}

func newBlockingRenderer(honorCtx bool) *blockingRenderer {
	return &blockingRenderer{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		honorCtx: honorCtx,
		sawErr:   make(chan error, 1),
	}
}

func (b *blockingRenderer) Render(ctx context.Context, req avatar.RenderRequest) (*avatar.Render, error) {
	close(b.started)
	if b.honorCtx {
		select {
		case <-ctx.Done():
			b.sawErr <- ctx.Err()
			return nil, ctx.Err()
		case <-b.release:
		}
	} else {
		<-b.release
	}
	return &avatar.Render{Video: []byte("late-video"), Provider: "test"}, nil
}

type fixture struct {
	tracker *Tracker
	repo    domain.JobRepository
	events  *recordingPublisher
}

func newFixture(t *testing.T, renderer avatar.Renderer, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := infra.OpenSQLite(ctx, filepath.Join(dir, "jobs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	jobs, err := repo.NewSQLiteJobRepository(ctx, db.DB)
	if err != nil {
		t.Fatalf("NewSQLiteJobRepository returned error: %v", err)
	}
	store, err := storage.NewFileStore(filepath.Join(dir, "artifacts"), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if renderer == nil {
		renderer = avatar.NewSynthetic()
	}
	pub := &recordingPublisher{}
	tr := New(Deps{
		Repo:    jobs,
		Speech:  tts.NewSynthetic(),
		Avatars: renderer,
		Store:   store,
		Events:  pub,
		Logger:  zerolog.Nop(),
	}, opts...)
	return &fixture{tracker: tr, repo: jobs, events: pub}
}

func helloRequest() SubmitRequest {
	return SubmitRequest{UserID: "user-1", CampaignID: "camp-1", Script: "Hello world", AvatarID: "1", VoiceID: "1"}
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if job.ID == "" || job.Status != domain.JobStatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Type != domain.JobTypeAvatarVideo || job.GenerationSettings.Quality != domain.QualityStandard {
		t.Fatalf("defaults not applied: type=%q quality=%q", job.Type, job.GenerationSettings.Quality)
	}

	view, err := f.tracker.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if view.Status != domain.JobStatusPending || view.Progress != 0 || view.EstimatedTimeRemainingSeconds != nil {
		t.Fatalf("unexpected view: %+v", view)
	}

	if _, err := f.tracker.Status(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Status(missing) error = %v, want ErrNotFound", err)
	}
}

func TestProcessCompletesJob(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if err := f.tracker.Process(ctx, job.ID); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	view, err := f.tracker.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if view.Status != domain.JobStatusCompleted || view.Progress != 100 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Output == nil || view.Output.VideoURL == "" {
		t.Fatalf("completed job without video url: %+v", view)
	}
	if !strings.HasPrefix(view.Output.VideoURL, "http://localhost:8080/static/jobs/"+job.ID+"/") {
		t.Fatalf("VideoURL = %q", view.Output.VideoURL)
	}
	if view.Output.ThumbnailURL == "" || view.Output.AudioURL == "" {
		t.Fatalf("missing artifacts: %+v", view.Output)
	}
	if view.Output.DurationSeconds != 1 || view.Output.Cost != 0.25 {
		t.Fatalf("duration/cost = %d/%v, want 1/0.25", view.Output.DurationSeconds, view.Output.Cost)
	}
	if view.Error != "" {
		t.Fatalf("completed job carries error %q", view.Error)
	}

	stored, err := f.tracker.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.ErrorMessage != nil || stored.ProcessingStartedAt == nil || stored.ProcessingCompletedAt == nil {
		t.Fatalf("unexpected stored job: %+v", stored)
	}

	got := f.events.statuses(job.ID)
	want := []string{"pending", "processing", "completed"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("status sequence = %v, want %v", got, want)
	}
}

func TestProcessFailureRecordsProviderError(t *testing.T) {
	f := newFixture(t, failingRenderer{err: errors.New("render quota exceeded")})
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if err := f.tracker.Process(ctx, job.ID); err == nil {
		t.Fatal("Process returned nil error for failing render")
	}

	view, err := f.tracker.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if view.Status != domain.JobStatusFailed || view.Progress != 0 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if !strings.Contains(view.Error, "render quota exceeded") {
		t.Fatalf("Error = %q, want provider message", view.Error)
	}
	if view.Output != nil {
		t.Fatalf("failed job carries output: %+v", view.Output)
	}
	stored, err := f.tracker.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Output != nil {
		t.Fatalf("failed job stored output: %+v", stored.Output)
	}
}

func TestRetryResetsFailedJob(t *testing.T) {
	f := newFixture(t, failingRenderer{err: errors.New("boom")})
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	_ = f.tracker.Process(ctx, job.ID)

	retried, err := f.tracker.Retry(ctx, job.ID)
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if retried.Status != domain.JobStatusPending {
		t.Fatalf("Status = %q, want pending", retried.Status)
	}
	if retried.ErrorMessage != nil || retried.ProcessingStartedAt != nil || retried.ProcessingCompletedAt != nil {
		t.Fatalf("retry left results behind: %+v", retried)
	}

	if _, err := f.tracker.Retry(ctx, job.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Retry(pending) error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.tracker.Retry(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Retry(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	pending, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	cancelled, err := f.tracker.Cancel(ctx, pending.ID)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != domain.JobStatusCancelled || cancelled.ProcessingCompletedAt == nil {
		t.Fatalf("unexpected cancelled job: %+v", cancelled)
	}
	if err := f.tracker.Process(ctx, pending.ID); err != nil {
		t.Fatalf("Process(cancelled) returned error: %v", err)
	}
	if view, _ := f.tracker.Status(ctx, pending.ID); view.Status != domain.JobStatusCancelled || view.Progress != 0 {
		t.Fatalf("cancelled job was processed: %+v", view)
	}

	done, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if err := f.tracker.Process(ctx, done.ID); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if _, err := f.tracker.Cancel(ctx, done.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Cancel(completed) error = %v, want ErrInvalidTransition", err)
	}
	if view, _ := f.tracker.Status(ctx, done.ID); view.Status != domain.JobStatusCompleted {
		t.Fatalf("completed job changed status: %+v", view)
	}
}

func TestCancelWinsOverLateCompletion(t *testing.T) {
	renderer := newBlockingRenderer(false)
	f := newFixture(t, renderer)
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	processed := make(chan error, 1)
	go func() { processed <- f.tracker.Process(ctx, job.ID) }()
	<-renderer.started

	if _, err := f.tracker.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	close(renderer.release)
	if err := <-processed; err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	stored, err := f.tracker.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Status != domain.JobStatusCancelled || stored.Output != nil {
		t.Fatalf("late completion overwrote cancel: %+v", stored)
	}
}

// renderSequence hands each Render call to the next renderer in line.
type renderSequence struct {
	mu    sync.Mutex
	calls int
	steps []avatar.Renderer
}

func (s *renderSequence) Render(ctx context.Context, req avatar.RenderRequest) (*avatar.Render, error) {
	s.mu.Lock()
	next := s.steps[s.calls]
	s.calls++
	s.mu.Unlock()
	return next.Render(ctx, req)
}

func TestStaleAttemptCannotFinishRetriedJob(t *testing.T) {
	first, second := newBlockingRenderer(false), newBlockingRenderer(false)
	f := newFixture(t, &renderSequence{steps: []avatar.Renderer{first, second}})
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- f.tracker.Process(ctx, job.ID) }()
	<-first.started
	if _, err := f.tracker.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if _, err := f.tracker.Retry(ctx, job.ID); err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	secondDone := make(chan error, 1)
	go func() { secondDone <- f.tracker.Process(ctx, job.ID) }()
	<-second.started

	close(first.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Process returned error: %v", err)
	}
	stored, err := f.tracker.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Status != domain.JobStatusProcessing || stored.Output != nil || stored.Attempt != 2 {
		t.Fatalf("first attempt finished the retried job: status=%s output=%+v attempt=%d", stored.Status, stored.Output, stored.Attempt)
	}
	if !f.tracker.isRunning(job.ID) {
		t.Fatal("first attempt dropped the second attempt's cancel handle")
	}

	close(second.release)
	if err := <-secondDone; err != nil {
		t.Fatalf("second Process returned error: %v", err)
	}
	stored, err = f.tracker.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Status != domain.JobStatusCompleted || stored.Output == nil {
		t.Fatalf("second attempt did not complete: %+v", stored)
	}
	if f.tracker.isRunning(job.ID) {
		t.Fatal("finished attempt still tracked as running")
	}
}

func TestCancelAbortsInFlightRender(t *testing.T) {
	renderer := newBlockingRenderer(true)
	f := newFixture(t, renderer)
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	processed := make(chan error, 1)
	go func() { processed <- f.tracker.Process(ctx, job.ID) }()
	<-renderer.started

	if _, err := f.tracker.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	select {
	case err := <-renderer.sawErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("render saw %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("render was not cancelled")
	}
	if err := <-processed; err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if view, _ := f.tracker.Status(ctx, job.ID); view.Status != domain.JobStatusCancelled || view.Error != "" {
		t.Fatalf("unexpected view after cancel: %+v", view)
	}
}

func TestWorkerPoolDrainsSubmittedJobs(t *testing.T) {
	f := newFixture(t, nil, WithWorkers(2), WithQueueSize(8))
	f.tracker.Start()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		job, err := f.tracker.Submit(ctx, helloRequest())
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		ids = append(ids, job.ID)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := f.tracker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	for _, id := range ids {
		view, err := f.tracker.Status(ctx, id)
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if view.Status != domain.JobStatusCompleted {
			t.Fatalf("job %s status = %q, want completed", id, view.Status)
		}
	}
}

func TestSweepQueuesPendingJobs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.tracker.Sweep(ctx); err == nil {
		t.Fatal("Sweep without workers returned nil error")
	}

	// Submitted before the pool exists, so nothing dispatched them.
	var ids []string
	for i := 0; i < 2; i++ {
		job, err := f.tracker.Submit(ctx, helloRequest())
		if err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
		ids = append(ids, job.ID)
	}

	f.tracker.Start()
	queued, err := f.tracker.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if queued != 2 {
		t.Fatalf("Sweep queued %d, want 2", queued)
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := f.tracker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	for _, id := range ids {
		if view, _ := f.tracker.Status(ctx, id); view.Status != domain.JobStatusCompleted {
			t.Fatalf("job %s status = %q, want completed", id, view.Status)
		}
	}
}

func TestReclaimStale(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, nil, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	stale := now.Add(-time.Hour)
	fresh := now.Add(-time.Minute)
	for id, started := range map[string]time.Time{"stale": stale, "fresh": fresh} {
		started := started
		job := &domain.GenerationJob{
			ID:                  id,
			UserID:              "user-1",
			Type:                domain.JobTypeAvatarVideo,
			Status:              domain.JobStatusProcessing,
			Script:              "Hello world",
			AvatarID:            "1",
			VoiceID:             "1",
			ProcessingStartedAt: &started,
			CreatedAt:           started,
			UpdatedAt:           started,
		}
		if err := f.repo.Create(ctx, job); err != nil {
			t.Fatalf("Create(%s) returned error: %v", id, err)
		}
		if _, err := f.repo.Update(ctx, id, domain.JobUpdate{To: domain.JobStatusProcessing, ProcessingStartedAt: &started}); err != nil {
			t.Fatalf("Update(%s) returned error: %v", id, err)
		}
	}

	n, err := f.tracker.ReclaimStale(ctx, now.Add(-30*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStale returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("ReclaimStale = %d, want 1", n)
	}
	reclaimed, _ := f.tracker.Get(ctx, "stale")
	if reclaimed.Status != domain.JobStatusPending || reclaimed.ProcessingStartedAt != nil {
		t.Fatalf("stale job not reset: %+v", reclaimed)
	}
	untouched, _ := f.tracker.Get(ctx, "fresh")
	if untouched.Status != domain.JobStatusProcessing {
		t.Fatalf("fresh job status = %q, want processing", untouched.Status)
	}
}

func TestRunSweeperPicksUpPendingJobs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	job, err := f.tracker.Submit(ctx, helloRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	f.tracker.Start()
	sweepCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		f.tracker.RunSweeper(sweepCtx, 10*time.Millisecond, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		view, err := f.tracker.Status(ctx, job.ID)
		if err != nil {
			t.Fatalf("Status returned error: %v", err)
		}
		if view.Status == domain.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job still %q after sweeping", view.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	stop()
	<-done
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := f.tracker.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}
