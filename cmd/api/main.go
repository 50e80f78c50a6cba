package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"reelmate/internal/bootstrap"
	"reelmate/internal/http/handlers"
	httpapi "reelmate/internal/http/httpapi"
	"reelmate/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build job tracker")
	}
	defer rt.Close()

	app, err := handlers.NewApp(rt.Tracker, rt.Catalog, rt.Store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build handlers")
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       rt.Store.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, router)

	sweepDone := make(chan struct{})
	if cfg.InlineWorkers {
		rt.Tracker.Start()
		go func() {
			rt.Tracker.RunSweeper(ctx, cfg.SweepInterval, cfg.StaleAfter)
			close(sweepDone)
		}()
	} else {
		close(sweepDone)
		logger.Info().Msg("inline workers disabled, jobs wait for a worker process")
	}

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	<-sweepDone
	if cfg.InlineWorkers {
		// In-flight jobs may take up to a full job timeout to settle.
		drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
		defer drainCancel()
		if err := rt.Tracker.Shutdown(drainCtx); err != nil {
			logger.Error().Err(err).Msg("workers did not drain")
		}
	}
	logger.Info().Msg("server stopped")
}
