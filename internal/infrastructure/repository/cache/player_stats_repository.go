package cache

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	basecache "github.com/riskibarqy/fantasy-companion/internal/platform/cache"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
)

// PlayerStatsRepository caches ListByPlayer reads in front of another
// repository. Any upsert for a player drops that player's cached lists.
type PlayerStatsRepository struct {
	next    playerstats.Repository
	backend basecache.Backend
	ttl     time.Duration
	logger  *logging.Logger
}

func NewPlayerStatsRepository(next playerstats.Repository, backend basecache.Backend, ttl time.Duration, logger *logging.Logger) *PlayerStatsRepository {
	return &PlayerStatsRepository{
		next:    next,
		backend: backend,
		ttl:     ttl,
		logger:  logging.OrDefault(logger),
	}
}

func (r *PlayerStatsRepository) UpsertStat(ctx context.Context, record playerstats.Record) (playerstats.UpsertOutcome, error) {
	outcome, err := r.next.UpsertStat(ctx, record)
	if err == nil {
		r.invalidate(ctx, playerstats.KindStat, record.Key)
	}
	return outcome, err
}

func (r *PlayerStatsRepository) UpsertProjection(ctx context.Context, record playerstats.Record) (playerstats.UpsertOutcome, error) {
	outcome, err := r.next.UpsertProjection(ctx, record)
	if err == nil {
		r.invalidate(ctx, playerstats.KindProjection, record.Key)
	}
	return outcome, err
}

func (r *PlayerStatsRepository) ListByPlayer(ctx context.Context, kind playerstats.Kind, query playerstats.Query) ([]playerstats.Record, error) {
	key := listCacheKey(kind, query.PlayerID, query.Sport, query.Season, query.SeasonStage)

	var cached []playerstats.Record
	ok, err := basecache.GetJSON(ctx, r.backend, key, &cached)
	if err != nil {
		r.logger.WarnContext(ctx, "read cached player stats failed", "key", key, "error", err)
	}
	if ok {
		return cached, nil
	}

	items, err := r.next.ListByPlayer(ctx, kind, query)
	if err != nil {
		return nil, err
	}
	if err := basecache.SetJSON(ctx, r.backend, key, items, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "write cached player stats failed", "key", key, "error", err)
	}
	return items, nil
}

func (r *PlayerStatsRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *PlayerStatsRepository) invalidate(ctx context.Context, kind playerstats.Kind, key playerstats.Key) {
	cacheKey := listCacheKey(kind, key.PlayerID, key.Sport, key.Season, key.SeasonStage)
	if err := r.backend.Delete(ctx, cacheKey); err != nil {
		r.logger.WarnContext(ctx, "invalidate cached player stats failed", "key", cacheKey, "error", err)
	}
}

func listCacheKey(kind playerstats.Kind, playerID, sport, season, stage string) string {
	return strings.Join([]string{"playerstats", string(kind), sport, season, stage, playerID}, ":")
}
