package playerstats

import (
	"fmt"
	"strings"
	"time"
)

// Kind separates observed stats from forward-looking projections. The two are
// stored in different tables with different merge rules.
type Kind string

const (
	KindStat       Kind = "stat"
	KindProjection Kind = "projection"
)

type StatType string

const (
	StatTypeRegular StatType = "regular"
	StatTypeWeek    StatType = "week"
)

const (
	StageRegular = "regular"
	StagePre     = "pre"
	StagePost    = "post"
)

const (
	GroupingWeek   = "week"
	GroupingSeason = "season"
)

// Key identifies at most one record per table. Week is 0 for season totals.
type Key struct {
	PlayerID    string `json:"player_id"`
	Sport       string `json:"sport"`
	Season      string `json:"season"`
	SeasonStage string `json:"season_stage"`
	Week        int    `json:"week"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%d", k.Sport, k.Season, k.SeasonStage, k.PlayerID, k.Week)
}

func (k Key) Validate() error {
	switch {
	case strings.TrimSpace(k.PlayerID) == "":
		return fmt.Errorf("player id is required")
	case strings.TrimSpace(k.Sport) == "":
		return fmt.Errorf("sport is required")
	case strings.TrimSpace(k.Season) == "":
		return fmt.Errorf("season is required")
	case !ValidStage(k.SeasonStage):
		return fmt.Errorf("invalid season stage %q", k.SeasonStage)
	case k.Week < 0:
		return fmt.Errorf("week must be >= 0")
	}
	return nil
}

type Record struct {
	Key
	Kind      Kind               `json:"kind"`
	StatType  StatType           `json:"stat_type"`
	Metrics   map[string]float64 `json:"metrics"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)

func ValidStage(stage string) bool {
	switch stage {
	case StageRegular, StagePre, StagePost:
		return true
	}
	return false
}

func ValidGrouping(grouping string) bool {
	return grouping == GroupingWeek || grouping == GroupingSeason
}

// MergeMetrics overlays incoming on existing. Fields missing from incoming keep their old value.
func MergeMetrics(existing, incoming map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}
