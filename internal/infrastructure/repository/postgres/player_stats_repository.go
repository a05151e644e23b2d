package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	qb "github.com/riskibarqy/fantasy-companion/internal/platform/querybuilder"
)

const (
	playerStatsTable       = "player_stats"
	playerProjectionsTable = "player_projections"
)

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// UpsertStat replaces the stored metrics: a re-ingest converges on the
// provider's latest numbers.
func (r *PlayerStatsRepository) UpsertStat(ctx context.Context, record playerstats.Record) (playerstats.UpsertOutcome, error) {
	return r.upsert(ctx, playerStatsTable, record, `ON CONFLICT (player_id, sport, season, season_stage, week)
DO UPDATE SET
    stat_type = EXCLUDED.stat_type,
    metrics = EXCLUDED.metrics,
    updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted`)
}

// UpsertProjection merges metrics key by key so a partial projection update
// keeps the fields it did not mention.
func (r *PlayerStatsRepository) UpsertProjection(ctx context.Context, record playerstats.Record) (playerstats.UpsertOutcome, error) {
	return r.upsert(ctx, playerProjectionsTable, record, `ON CONFLICT (player_id, sport, season, season_stage, week)
DO UPDATE SET
    stat_type = EXCLUDED.stat_type,
    metrics = player_projections.metrics || EXCLUDED.metrics,
    updated_at = EXCLUDED.updated_at
RETURNING (xmax = 0) AS inserted`)
}

func (r *PlayerStatsRepository) upsert(ctx context.Context, table string, record playerstats.Record, suffix string) (playerstats.UpsertOutcome, error) {
	if err := record.Key.Validate(); err != nil {
		return "", fmt.Errorf("upsert %s: %w", table, err)
	}

	metrics := record.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	metricsJSON, err := sonic.MarshalString(metrics)
	if err != nil {
		return "", fmt.Errorf("marshal %s metrics key=%s: %w", table, record.Key, err)
	}

	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	model := playerStatInsertModel{
		PlayerID:    record.PlayerID,
		Sport:       record.Sport,
		Season:      record.Season,
		SeasonStage: record.SeasonStage,
		Week:        record.Week,
		StatType:    string(record.StatType),
		Metrics:     metricsJSON,
		UpdatedAt:   updatedAt,
	}
	query, args, err := qb.InsertModel(table, model, suffix)
	if err != nil {
		return "", fmt.Errorf("build upsert %s query: %w", table, err)
	}

	var inserted bool
	err = retryStatement(ctx, func(ctx context.Context) error {
		return r.db.QueryRowxContext(ctx, query, args...).Scan(&inserted)
	})
	if err != nil {
		return "", storageError(fmt.Sprintf("upsert %s key=%s", table, record.Key), err)
	}

	if inserted {
		return playerstats.OutcomeCreated, nil
	}
	return playerstats.OutcomeUpdated, nil
}

func (r *PlayerStatsRepository) ListByPlayer(ctx context.Context, kind playerstats.Kind, query playerstats.Query) ([]playerstats.Record, error) {
	table := playerStatsTable
	if kind == playerstats.KindProjection {
		table = playerProjectionsTable
	}

	conditions := []qb.Condition{
		qb.Eq("player_id", query.PlayerID),
		qb.Eq("sport", query.Sport),
		qb.Eq("season", query.Season),
	}
	if query.SeasonStage != "" {
		conditions = append(conditions, qb.Eq("season_stage", query.SeasonStage))
	}

	sqlQuery, args, err := qb.Select(qb.Columns(playerStatRow{})...).
		From(table).
		Where(conditions...).
		OrderBy("season_stage ASC", "week ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list %s query: %w", table, err)
	}

	var rows []playerStatRow
	err = retryStatement(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, sqlQuery, args...)
	})
	if err != nil {
		return nil, storageError(fmt.Sprintf("list %s player=%s", table, query.PlayerID), err)
	}

	out := make([]playerstats.Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toDomain(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *PlayerStatsRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w: %w", playerstats.ErrStorageUnavailable, err)
	}
	return nil
}
