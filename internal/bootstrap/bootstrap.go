// Package bootstrap assembles the job tracker and its collaborators from
// configuration for the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"reelmate/internal/adapter/repo"
	"reelmate/internal/catalog"
	"reelmate/internal/domain"
	"reelmate/internal/events"
	"reelmate/internal/infra"
	"reelmate/internal/infra/credentials"
	"reelmate/internal/providers/avatar"
	"reelmate/internal/providers/tts"
	"reelmate/internal/storage"
	"reelmate/internal/tracker"
)

// Runtime holds the wired tracker. Close releases the store and the event
// connection; call it after the tracker has shut down.
type Runtime struct {
	Tracker *tracker.Tracker
	Catalog *catalog.Catalog
	Store   *storage.FileStore

	closers []func()
}

func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Build opens the configured job store and providers and returns a tracker
// whose worker pool has not been started.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Runtime, error) {
	rt := &Runtime{Catalog: catalog.Default()}
	fail := func(err error) (*Runtime, error) {
		rt.Close()
		return nil, err
	}

	jobs, creds, err := rt.openJobStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}

	storagePath := cfg.StoragePath
	if abs, err := filepath.Abs(storagePath); err == nil {
		storagePath = abs
	}
	store, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		return fail(fmt.Errorf("configure storage: %w", err))
	}
	rt.Store = store

	openAIKey, err := creds.Resolve(ctx, credentials.ProviderOpenAI, cfg.OpenAIAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("openai api key lookup failed")
	}
	avatarKey, err := creds.Resolve(ctx, credentials.ProviderAvatar, cfg.AvatarAPIKey)
	if err != nil {
		logger.Warn().Err(err).Msg("avatar api key lookup failed")
	}
	if openAIKey == "" {
		logger.Warn().Msg("openai api key missing, using synthetic speech")
	}
	if avatarKey == "" {
		logger.Warn().Msg("avatar api key missing, using synthetic renders")
	}

	publisher, err := events.New(cfg.NATSURL)
	if err != nil {
		return fail(fmt.Errorf("connect lifecycle events: %w", err))
	}
	rt.closers = append(rt.closers, publisher.Close)

	rt.Tracker = tracker.New(tracker.Deps{
		Repo:    jobs,
		Catalog: rt.Catalog,
		Speech: tts.New(tts.OpenAIOptions{
			APIKey:       openAIKey,
			Model:        cfg.OpenAITTSModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
		}),
		Avatars: avatar.New(avatar.HeyGenOptions{
			APIKey:       avatarKey,
			BaseURL:      cfg.AvatarBaseURL,
			PollInterval: cfg.AvatarPollInterval,
		}),
		Store:  store,
		Events: publisher,
		Logger: logger,
	},
		tracker.WithWorkers(cfg.WorkerCount),
		tracker.WithQueueSize(cfg.QueueSize),
		tracker.WithJobTimeout(cfg.JobTimeout),
	)
	return rt, nil
}

// openJobStore returns the repository for cfg.JobStore. The credential store
// is nil for sqlite, where keys come from the environment only.
func (rt *Runtime) openJobStore(ctx context.Context, cfg *infra.Config, logger infra.Logger) (domain.JobRepository, *credentials.Store, error) {
	switch cfg.JobStore {
	case infra.JobStorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		runner := infra.NewSQLRunner(pool, logger)
		jobs := repo.NewJobRepository(runner)
		if err := jobs.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info().Str("store", cfg.JobStore).Msg("job store ready")
		return jobs, credentials.NewStore(runner), nil
	case infra.JobStoreSQLite:
		db, err := infra.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		jobs, err := repo.NewSQLiteJobRepository(ctx, db.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("store", cfg.JobStore).Str("path", db.Path).Msg("job store ready")
		return jobs, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported job store %q", cfg.JobStore)
	}
}
