package app

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	localqueue "github.com/riskibarqy/fantasy-companion/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
)

const catalogRefreshTimeout = 2 * time.Minute

type jobRunner interface {
	RunJob(ctx context.Context, job usecase.IngestJob) (usecase.IngestionReport, error)
}

// ingestJobHandler is the in-process counterpart of the ingest job endpoint.
func ingestJobHandler(runner jobRunner) localqueue.Handler {
	return func(ctx context.Context, body []byte) error {
		var job usecase.IngestJob
		if err := sonic.Unmarshal(body, &job); err != nil {
			return fmt.Errorf("decode ingest job: %w", err)
		}
		_, err := runner.RunJob(ctx, job)
		return err
	}
}

type catalogRefresher interface {
	Refresh(ctx context.Context, sport string) (player.Catalog, error)
}

// StartCatalogRefresh schedules a refresh of every sport on spec. It returns
// nil when spec is empty.
func StartCatalogRefresh(spec string, sports []string, catalog catalogRefresher, logger *logging.Logger) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	logger = logging.OrDefault(logger)

	cl := cronLogger{logger: logger}
	scheduler := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	_, err := scheduler.AddFunc(spec, func() {
		for _, sport := range sports {
			ctx, cancel := context.WithTimeout(context.Background(), catalogRefreshTimeout)
			snapshot, err := catalog.Refresh(ctx, sport)
			cancel()
			if err != nil {
				logger.Warn("scheduled catalog refresh failed", "sport", sport, "error", err)
				continue
			}
			logger.Info("scheduled catalog refresh done", "sport", sport, "players", snapshot.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule catalog refresh %q: %w", spec, err)
	}

	scheduler.Start()
	logger.Info("catalog refresh scheduled", "cron", spec, "sports", sports)
	return scheduler, nil
}

type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
