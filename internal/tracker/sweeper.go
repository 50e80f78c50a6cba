package tracker

import (
	"context"
	"time"
)

// RunSweeper calls Sweep and ReclaimStale every interval until ctx ends.
// Jobs whose processing started more than staleAfter ago are reclaimed; a
// non-positive staleAfter disables reclamation.
func (t *Tracker) RunSweeper(ctx context.Context, interval, staleAfter time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.sweepOnce(ctx, staleAfter)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweepOnce(ctx, staleAfter)
		}
	}
}

func (t *Tracker) sweepOnce(ctx context.Context, staleAfter time.Duration) {
	if staleAfter > 0 {
		if n, err := t.ReclaimStale(ctx, t.now().Add(-staleAfter)); err != nil {
			t.logger.Error().Err(err).Msg("reclaim stale jobs failed")
		} else if n > 0 {
			t.logger.Info().Int("reclaimed", n).Msg("stale jobs returned to pending")
		}
	}
	if _, err := t.Sweep(ctx); err != nil && ctx.Err() == nil {
		t.logger.Error().Err(err).Msg("sweep pending jobs failed")
	}
}
