package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/services/compressor"
	"github.com/phambaophuc/tiny-compress-images/internal/services/mirror"
	"github.com/phambaophuc/tiny-compress-images/internal/services/storage"
	"github.com/phambaophuc/tiny-compress-images/internal/settings"
	"github.com/phambaophuc/tiny-compress-images/internal/tinify"
)

// app holds the services shared by every command.
type app struct {
	redis      *redis.Client
	store      settings.Store
	opts       settings.Options
	storage    *storage.StorageService
	compressor *compressor.Compressor
	registry   *prometheus.Registry
	media      afero.Fs
}

func newApp(ctx context.Context) (*app, error) {
	redisClient := storage.NewRedisClient(cfg)

	registry, err := settings.LoadRegistry(cfg.Site.SizesFile)
	if err != nil {
		return nil, err
	}
	opts := settings.Options{
		Overrides:        []settings.KeySource{settings.StaticKey(cfg.Tinify.APIKey)},
		Multisite:        cfg.Site.Multisite,
		NetworkActivated: cfg.Site.NetworkActivated,
		Registry:         registry,
	}
	store := settings.NewRedisStore(redisClient)
	if err := settings.SeedDefaults(ctx, store); err != nil {
		logger.Warn("Failed to seed default sizes", zap.Error(err))
	}

	m, err := mirror.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mirror: %w", err)
	}
	storageService := storage.NewStorageService(redisClient, m)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	media := afero.NewBasePathFs(afero.NewOsFs(), cfg.Media.Root)
	c := compressor.New(
		storageService,
		tinify.NewClient(cfg.Tinify.Endpoint, cfg.Tinify.Timeout),
		func() compressor.Settings { return settings.New(store, opts, logger) },
		logger,
		compressor.Options{
			Fs:               media,
			InProgressWindow: cfg.Media.InProgressWindow,
			Mirror:           m,
			MirrorPrefix:     cfg.Mirror.Prefix,
			Metrics:          compressor.NewMetrics(promRegistry),
		},
	)

	logger.Info("Services initialized",
		zap.String("media_root", cfg.Media.Root),
		zap.String("mirror", m.Name()),
		zap.Strings("sizes", registry.Names()),
	)

	return &app{
		redis:      redisClient,
		store:      store,
		opts:       opts,
		storage:    storageService,
		compressor: c,
		registry:   promRegistry,
		media:      media,
	}, nil
}

func (a *app) Close() error {
	return a.redis.Close()
}
