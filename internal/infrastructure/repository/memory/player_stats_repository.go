package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
)

// PlayerStatsRepository keeps stats and projections in two maps keyed like
// the postgres unique indexes.
type PlayerStatsRepository struct {
	mu          sync.RWMutex
	stats       map[playerstats.Key]playerstats.Record
	projections map[playerstats.Key]playerstats.Record
	down        error
}

func NewPlayerStatsRepository() *PlayerStatsRepository {
	return &PlayerStatsRepository{
		stats:       make(map[playerstats.Key]playerstats.Record),
		projections: make(map[playerstats.Key]playerstats.Record),
	}
}

// SetUnavailable makes every call fail with playerstats.ErrStorageUnavailable
// until cleared with false.
func (r *PlayerStatsRepository) SetUnavailable(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if down {
		r.down = playerstats.ErrStorageUnavailable
		return
	}
	r.down = nil
}

func (r *PlayerStatsRepository) UpsertStat(_ context.Context, record playerstats.Record) (playerstats.UpsertOutcome, error) {
	if err := record.Key.Validate(); err != nil {
		return "", fmt.Errorf("upsert stat: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down != nil {
		return "", r.down
	}

	_, exists := r.stats[record.Key]
	record.Kind = playerstats.KindStat
	record.Metrics = maps.Clone(record.Metrics)
	r.stats[record.Key] = record
	return outcomeOf(exists), nil
}

func (r *PlayerStatsRepository) UpsertProjection(_ context.Context, record playerstats.Record) (playerstats.UpsertOutcome, error) {
	if err := record.Key.Validate(); err != nil {
		return "", fmt.Errorf("upsert projection: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down != nil {
		return "", r.down
	}

	existing, exists := r.projections[record.Key]
	record.Kind = playerstats.KindProjection
	if exists {
		record.Metrics = playerstats.MergeMetrics(existing.Metrics, record.Metrics)
	} else {
		record.Metrics = maps.Clone(record.Metrics)
	}
	r.projections[record.Key] = record
	return outcomeOf(exists), nil
}

func (r *PlayerStatsRepository) ListByPlayer(_ context.Context, kind playerstats.Kind, query playerstats.Query) ([]playerstats.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.down != nil {
		return nil, r.down
	}

	source := r.stats
	if kind == playerstats.KindProjection {
		source = r.projections
	}

	out := make([]playerstats.Record, 0)
	for key, record := range source {
		if key.PlayerID != query.PlayerID || key.Sport != query.Sport || key.Season != query.Season {
			continue
		}
		if query.SeasonStage != "" && key.SeasonStage != query.SeasonStage {
			continue
		}
		record.Metrics = maps.Clone(record.Metrics)
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeasonStage != out[j].SeasonStage {
			return out[i].SeasonStage < out[j].SeasonStage
		}
		return out[i].Week < out[j].Week
	})
	return out, nil
}

func (r *PlayerStatsRepository) Ping(context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.down
}

// Count returns the number of stored records of kind.
func (r *PlayerStatsRepository) Count(kind playerstats.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if kind == playerstats.KindProjection {
		return len(r.projections)
	}
	return len(r.stats)
}

func outcomeOf(existed bool) playerstats.UpsertOutcome {
	if existed {
		return playerstats.OutcomeUpdated
	}
	return playerstats.OutcomeCreated
}
