package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"reelmate/internal/domain"
	"reelmate/internal/infra"
)

var errPoolClosed = errors.New("tracker: worker pool is shutting down")

// pool runs jobs on a fixed number of workers fed by a bounded channel.
// Enqueue never blocks; a full queue is reported as domain.ErrQueueFull and
// the job is left for the sweeper.
type pool struct {
	run     func(ctx context.Context, jobID string) error
	logger  infra.Logger
	workers int
	timeout time.Duration

	ch   chan string
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
	queued map[string]struct{}
}

func newPool(run func(ctx context.Context, jobID string) error, logger infra.Logger, workers, queueSize int, timeout time.Duration) *pool {
	return &pool{
		run:     run,
		logger:  logger,
		workers: workers,
		timeout: timeout,
		ch:      make(chan string, queueSize),
		queued:  make(map[string]struct{}, queueSize),
	}
}

func (p *pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug().Int("worker_id", workerID).Msg("worker started")

				for jobID := range p.ch {
					p.mu.Lock()
					delete(p.queued, jobID)
					p.mu.Unlock()

					ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
					err := p.run(ctx, jobID)
					cancel()

					if err != nil {
						p.logger.Warn().Err(err).Int("worker_id", workerID).Str("job_id", jobID).Msg("job did not complete")
					}
				}

				p.logger.Debug().Int("worker_id", workerID).Msg("worker stopped")
			}(i + 1)
		}
	})
}

// enqueue hands jobID to the workers. A job that is already waiting in the
// queue is not queued twice.
func (p *pool) enqueue(jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errPoolClosed
	}
	if _, ok := p.queued[jobID]; ok {
		return nil
	}
	select {
	case p.ch <- jobID:
		p.queued[jobID] = struct{}{}
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// capacity reports how many more jobs fit in the queue right now.
func (p *pool) capacity() int {
	return cap(p.ch) - len(p.ch)
}

func (p *pool) shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn().Msg("shutdown interrupted by context")
		return ctx.Err()
	case <-done:
		p.logger.Info().Msg("queue drained, shutdown complete")
		return nil
	}
}
