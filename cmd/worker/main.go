package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reelmate/internal/bootstrap"
	"reelmate/internal/infra"
)

// The worker runs the pool against the shared job store and picks up work
// through the sweeper, since submissions arrive in the api process.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JobStore == infra.JobStoreSQLite {
		logger.Warn().Str("path", cfg.SQLitePath).Msg("worker: sqlite store is exclusive, run the api with INLINE_WORKERS instead when sharing a host")
	}

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build job tracker")
	}
	defer rt.Close()

	rt.Tracker.Start()
	logger.Info().Int("workers", cfg.WorkerCount).Dur("sweep_interval", cfg.SweepInterval).Msg("worker: started")
	rt.Tracker.RunSweeper(ctx, cfg.SweepInterval, cfg.StaleAfter)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()
	if err := rt.Tracker.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("worker: pool did not drain")
	}
	logger.Info().Msg("worker: stopped")
}
