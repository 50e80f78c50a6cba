package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"reelmate/internal/domain"
	"reelmate/pkg/schema"
)

// Publisher emits job lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt schema.JobLifecycleEvent) error
	Close()
}

// Subject returns the subject a job in status is announced on.
func Subject(status domain.JobStatus) string {
	return schema.SubjectPrefix + string(status)
}

// FromJob builds the event announcing job's current status.
func FromJob(job *domain.GenerationJob, previous domain.JobStatus) schema.JobLifecycleEvent {
	evt := schema.JobLifecycleEvent{
		JobID:      job.ID,
		UserID:     job.UserID,
		CampaignID: job.CampaignID,
		JobType:    string(job.Type),
		Status:     string(job.Status),
		HappenedAt: job.UpdatedAt.Unix(),
	}
	if previous != job.Status {
		evt.PreviousStatus = string(previous)
	}
	if job.Output != nil {
		evt.Output = &schema.JobOutput{
			VideoURL:        job.Output.VideoURL,
			AudioURL:        job.Output.AudioURL,
			ThumbnailURL:    job.Output.ThumbnailURL,
			DurationSeconds: job.Output.DurationSeconds,
			FileSizeBytes:   job.Output.FileSizeBytes,
			Cost:            job.Output.Cost,
		}
	}
	if job.ErrorMessage != nil {
		evt.Error = *job.ErrorMessage
	}
	if job.ProcessingStartedAt != nil && job.ProcessingCompletedAt != nil {
		evt.ProcessingMs = job.ProcessingCompletedAt.Sub(*job.ProcessingStartedAt).Milliseconds()
	}
	return evt
}

// NATSPublisher publishes JSON events on a NATS connection.
type NATSPublisher struct{ nc *nats.Conn }

func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("reelmate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, evt schema.JobLifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.nc.Publish(schema.SubjectPrefix+evt.Status, b)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

// Nop drops every event. It stands in when NATS is not configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, evt schema.JobLifecycleEvent) error { return nil }
func (Nop) Close()                                                         {}

// New connects to url, or returns Nop when url is empty.
func New(url string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	p, err := Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return p, nil
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = Nop{}
)
