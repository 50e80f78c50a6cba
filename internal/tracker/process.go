package tracker

import (
	"context"
	"errors"
	"fmt"

	"reelmate/internal/domain"
	"reelmate/internal/media"
	"reelmate/internal/pricing"
	"reelmate/internal/providers/avatar"
	"reelmate/internal/providers/tts"
	"reelmate/internal/storage"
)

// Process runs one attempt of a pending job: claim, speech, render, price,
// complete. A failing step marks the job failed with that step's error and
// is returned. Process is a no-op when the job is no longer pending, which
// makes duplicate deliveries from the sweeper harmless. The final write is
// bound to the claimed attempt, so a run that was cancelled and superseded
// by a retry cannot touch the newer attempt.
func (t *Tracker) Process(ctx context.Context, jobID string) error {
	started := t.now().UTC()
	job, err := t.transition(ctx, jobID, domain.JobUpdate{
		From:                []domain.JobStatus{domain.JobStatusPending},
		To:                  domain.JobStatusProcessing,
		ProcessingStartedAt: &started,
		NextAttempt:         true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			t.logger.Debug().Str("job_id", jobID).Msg("job already claimed or cancelled")
			return nil
		}
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}

	attempt := job.Attempt

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	self := &activeRun{attempt: attempt, cancel: cancel}
	t.mu.Lock()
	t.running[jobID] = self
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		if t.running[jobID] == self {
			delete(t.running, jobID)
		}
		t.mu.Unlock()
	}()

	jobLog := t.logger.With().Str("job_id", jobID).Int("attempt", attempt).Logger()
	jobLog.Info().Msg("job processing")

	output, err := t.generate(runCtx, job)
	// The run context may be cancelled by now; the final write must still land.
	finalCtx, finalCancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer finalCancel()
	if err != nil {
		msg := err.Error()
		completed := t.now().UTC()
		_, updErr := t.transition(finalCtx, jobID, domain.JobUpdate{
			From:                  []domain.JobStatus{domain.JobStatusProcessing},
			To:                    domain.JobStatusFailed,
			ErrorMessage:          &msg,
			ProcessingCompletedAt: &completed,
			Attempt:               attempt,
		})
		if errors.Is(updErr, domain.ErrInvalidTransition) {
			jobLog.Info().Err(err).Msg("job left processing during run; failure discarded")
			return nil
		}
		if updErr != nil {
			return fmt.Errorf("record failure of job %s: %w", jobID, updErr)
		}
		jobLog.Warn().Err(err).Msg("job failed")
		return err
	}

	completed := t.now().UTC()
	_, err = t.transition(finalCtx, jobID, domain.JobUpdate{
		From:                  []domain.JobStatus{domain.JobStatusProcessing},
		To:                    domain.JobStatusCompleted,
		Output:                output,
		ProcessingCompletedAt: &completed,
		Attempt:               attempt,
	})
	if errors.Is(err, domain.ErrInvalidTransition) {
		jobLog.Info().Msg("job left processing during run; result discarded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("record completion of job %s: %w", jobID, err)
	}
	jobLog.Info().Float64("cost", output.Cost).Int64("file_size_bytes", output.FileSizeBytes).Msg("job completed")
	return nil
}

func (t *Tracker) generate(ctx context.Context, job *domain.GenerationJob) (*domain.JobOutput, error) {
	voiceToken, err := t.catalog.VoiceToken(job.VoiceID)
	if err != nil {
		return nil, fmt.Errorf("text-to-speech: %w", err)
	}
	audio, err := t.speech.Synthesize(ctx, tts.Request{Text: job.Script, Voice: voiceToken})
	if err != nil {
		return nil, fmt.Errorf("text-to-speech: %w", err)
	}
	audioKey, err := t.store.Write(ctx, storage.JobKey(job.ID, "audio."+audio.Extension), audio.Data)
	if err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}
	audioURL := t.store.PublicURL(audioKey)

	av, err := t.catalog.Avatar(job.AvatarID)
	if err != nil {
		return nil, fmt.Errorf("avatar render: %w", err)
	}
	render, err := t.renderer.Render(ctx, avatar.RenderRequest{
		JobID:       job.ID,
		AvatarID:    av.ProviderID,
		AudioURL:    audioURL,
		Script:      job.Script,
		AspectRatio: job.GenerationSettings.AspectRatio,
		Background:  job.GenerationSettings.Background,
		Quality:     job.GenerationSettings.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("avatar render: %w", err)
	}
	videoKey, err := t.store.Write(ctx, storage.JobKey(job.ID, "video.mp4"), render.Video)
	if err != nil {
		return nil, fmt.Errorf("store video: %w", err)
	}
	var thumbnailURL string
	if len(render.Thumbnail) > 0 {
		thumb, err := media.NormalizeThumbnail(render.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("thumbnail: %w", err)
		}
		thumbKey, err := t.store.Write(ctx, storage.JobKey(job.ID, "thumbnail.jpg"), thumb)
		if err != nil {
			return nil, fmt.Errorf("store thumbnail: %w", err)
		}
		thumbnailURL = t.store.PublicURL(thumbKey)
	}

	duration := pricing.EstimateDurationSeconds(job.Script)
	return &domain.JobOutput{
		VideoURL:        t.store.PublicURL(videoKey),
		AudioURL:        audioURL,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: duration,
		FileSizeBytes:   int64(len(render.Video)),
		Cost:            pricing.Cost(job.Type, duration, job.GenerationSettings.Quality),
	}, nil
}
