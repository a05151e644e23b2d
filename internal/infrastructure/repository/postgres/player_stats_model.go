package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
)

type playerStatInsertModel struct {
	PlayerID    string    `db:"player_id"`
	Sport       string    `db:"sport"`
	Season      string    `db:"season"`
	SeasonStage string    `db:"season_stage"`
	Week        int       `db:"week"`
	StatType    string    `db:"stat_type"`
	Metrics     string    `db:"metrics"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type playerStatRow struct {
	PlayerID    string    `db:"player_id"`
	Sport       string    `db:"sport"`
	Season      string    `db:"season"`
	SeasonStage string    `db:"season_stage"`
	Week        int       `db:"week"`
	StatType    string    `db:"stat_type"`
	Metrics     []byte    `db:"metrics"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r playerStatRow) toDomain(kind playerstats.Kind) (playerstats.Record, error) {
	metrics := map[string]float64{}
	if len(r.Metrics) > 0 {
		if err := sonic.Unmarshal(r.Metrics, &metrics); err != nil {
			return playerstats.Record{}, fmt.Errorf("decode metrics player=%s week=%d: %w", r.PlayerID, r.Week, err)
		}
	}

	return playerstats.Record{
		Key: playerstats.Key{
			PlayerID:    r.PlayerID,
			Sport:       r.Sport,
			Season:      r.Season,
			SeasonStage: r.SeasonStage,
			Week:        r.Week,
		},
		Kind:      kind,
		StatType:  playerstats.StatType(r.StatType),
		Metrics:   metrics,
		UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}
