package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/fantasy-companion/external/jobqueue"
	"github.com/riskibarqy/fantasy-companion/external/sleeper"
	"github.com/riskibarqy/fantasy-companion/internal/config"
	"github.com/riskibarqy/fantasy-companion/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	localqueue "github.com/riskibarqy/fantasy-companion/internal/infrastructure/jobqueue"
	repocache "github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/fantasy-companion/internal/platform/cache"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/riskibarqy/fantasy-companion/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
)

// Container holds the wired services shared by the API server and the CLI.
type Container struct {
	Accounts    *usecase.AccountValidationService
	Catalog     *usecase.CatalogService
	Ingestion   *usecase.IngestionService
	Dispatch    *usecase.JobDispatchService
	PlayerStats *usecase.PlayerStatsService
	Preferences *usecase.PreferenceService
	StatsRepo   playerstats.Repository

	closers []func() error
}

// NewContainer wires storage, the upstream client and the services from cfg.
// Callers must Close the container to release pools and queue workers.
func NewContainer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	logger = logging.OrDefault(logger)
	c := &Container{}

	statsRepo, dispatchRepo, err := c.buildStorage(ctx, cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	backend, err := c.buildCacheBackend(ctx, cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if cfg.CacheEnabled {
		statsRepo = repocache.NewPlayerStatsRepository(statsRepo, backend, cfg.CacheTTL, logger)
	}
	c.StatsRepo = statsRepo

	client := sleeper.NewClient(sleeper.ClientConfig{
		AppBaseURL:        cfg.SleeperAppBaseURL,
		StatsBaseURL:      cfg.SleeperStatsBaseURL,
		AppTimeout:        cfg.SleeperAppTimeout,
		StatsTimeout:      cfg.SleeperStatsTimeout,
		RequestsPerMinute: cfg.SleeperRequestsPerMinute,
		Logger:            logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SleeperCircuitEnabled,
			FailureThreshold: cfg.SleeperCircuitFailureCount,
			OpenTimeout:      cfg.SleeperCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SleeperCircuitHalfOpenMaxReq,
		},
	})

	c.Accounts = usecase.NewAccountValidationService(client, logger)
	c.Catalog = usecase.NewCatalogService(client, backend, usecase.CatalogConfig{TTL: cfg.CatalogTTL}, logger)
	c.Ingestion = usecase.NewIngestionService(client, statsRepo, usecase.IngestionConfig{
		ChunkSize:       cfg.IngestChunkSize,
		Workers:         cfg.IngestWorkers,
		ItemRetries:     cfg.IngestItemRetries,
		RetryBackoff:    cfg.IngestRetryBackoff,
		EmptyWeekPolicy: cfg.IngestEmptyWeekPolicy,
	}, logger)
	c.PlayerStats = usecase.NewPlayerStatsService(statsRepo)
	c.Preferences = usecase.NewPreferenceService(repocache.NewPreferenceStore(backend), logger)

	if cfg.QStashEnabled {
		publisher := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			Timeout:          cfg.QStashTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger)
		c.Dispatch = usecase.NewJobDispatchService(c.Ingestion, c.Catalog, publisher, dispatchRepo, logger)
		logger.Info("job queue configured", "queue", "qstash", "target", cfg.QStashTargetBaseURL)
		return c, nil
	}

	queue := localqueue.NewLocalQueue(cfg.IngestQueueWorkers, logger)
	c.closers = append(c.closers, func() error {
		queue.Close()
		return nil
	})
	c.Dispatch = usecase.NewJobDispatchService(c.Ingestion, c.Catalog, queue, dispatchRepo, logger)
	queue.Register(usecase.IngestJobPath, ingestJobHandler(c.Dispatch))
	logger.Info("job queue configured", "queue", "local", "workers", cfg.IngestQueueWorkers)

	return c, nil
}

func (c *Container) buildStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (playerstats.Repository, jobscheduler.Repository, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, records are lost on restart")
		return memory.NewPlayerStatsRepository(), memory.NewJobDispatchRepository(), nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	c.closers = append(c.closers, db.Close)
	logger.Info("postgres connected", "db", dbNameFromURL(cfg.DBURL))

	return postgres.NewPlayerStatsRepository(db), postgres.NewJobDispatchRepository(db), nil
}

func (c *Container) buildCacheBackend(ctx context.Context, cfg config.Config, logger *logging.Logger) (basecache.Backend, error) {
	if cfg.RedisURL == "" {
		return basecache.NewMemoryBackend(), nil
	}

	client, err := basecache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.closers = append(c.closers, client.Close)
	logger.Info("redis cache connected", "prefix", cfg.RedisKeyPrefix)

	return basecache.NewRedisBackend(client, cfg.RedisKeyPrefix), nil
}

// Close releases resources in reverse construction order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
