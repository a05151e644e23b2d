package playerstats

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Canonical NFL metric names.
const (
	MetricGamesPlayed         = "games_played"
	MetricPassingAttempts     = "passing_attempts"
	MetricPassingCompletions  = "passing_completions"
	MetricPassingYards        = "passing_yards"
	MetricPassingTDs          = "passing_tds"
	MetricPassingTwoPoint     = "passing_two_point"
	MetricInterceptions       = "interceptions"
	MetricRushingAttempts     = "rushing_attempts"
	MetricRushingYards        = "rushing_yards"
	MetricRushingTDs          = "rushing_tds"
	MetricRushingTwoPoint     = "rushing_two_point"
	MetricTargets             = "targets"
	MetricReceptions          = "receptions"
	MetricReceivingYards      = "receiving_yards"
	MetricReceivingTDs        = "receiving_tds"
	MetricReceivingTwoPoint   = "receiving_two_point"
	MetricFumblesLost         = "fumbles_lost"
	MetricFieldGoalsMade      = "field_goals_made"
	MetricFieldGoalsAttempted = "field_goals_attempted"
	MetricExtraPointsMade     = "extra_points_made"
	MetricDefSacks            = "def_sacks"
	MetricDefInterceptions    = "def_interceptions"
	MetricDefFumbleRecoveries = "def_fumble_recoveries"
	MetricDefTouchdowns       = "def_touchdowns"
	MetricPointsAllowed       = "points_allowed"
	MetricOffensiveSnaps      = "offensive_snaps"
	MetricFantasyPointsStd    = "fantasy_points_std"
	MetricFantasyPointsHalf   = "fantasy_points_half_ppr"
	MetricFantasyPointsPPR    = "fantasy_points_ppr"
)

// Canonical NBA metric names. Fantasy points are shared with NFL naming.
const (
	MetricPoints            = "points"
	MetricRebounds          = "rebounds"
	MetricAssists           = "assists"
	MetricSteals            = "steals"
	MetricBlocks            = "blocks"
	MetricTurnovers         = "turnovers"
	MetricThreesMade        = "threes_made"
	MetricFieldGoalsMadeNBA = "fg_made"
	MetricFieldGoalsAttNBA  = "fg_attempted"
	MetricMinutes           = "minutes"
)

var nflAliases = map[string]string{
	"gp":           MetricGamesPlayed,
	"pass_att":     MetricPassingAttempts,
	"pass_cmp":     MetricPassingCompletions,
	"pass_yd":      MetricPassingYards,
	"pass_yds":     MetricPassingYards,
	"pass_td":      MetricPassingTDs,
	"pass_2pt":     MetricPassingTwoPoint,
	"pass_int":     MetricInterceptions,
	"rush_att":     MetricRushingAttempts,
	"rush_yd":      MetricRushingYards,
	"rush_yds":     MetricRushingYards,
	"rush_td":      MetricRushingTDs,
	"rush_2pt":     MetricRushingTwoPoint,
	"rec_tgt":      MetricTargets,
	"rec":          MetricReceptions,
	"rec_yd":       MetricReceivingYards,
	"rec_yds":      MetricReceivingYards,
	"rec_td":       MetricReceivingTDs,
	"rec_2pt":      MetricReceivingTwoPoint,
	"fum_lost":     MetricFumblesLost,
	"fgm":          MetricFieldGoalsMade,
	"fga":          MetricFieldGoalsAttempted,
	"xpm":          MetricExtraPointsMade,
	"sack":         MetricDefSacks,
	"int":          MetricDefInterceptions,
	"fum_rec":      MetricDefFumbleRecoveries,
	"def_td":       MetricDefTouchdowns,
	"pts_allow":    MetricPointsAllowed,
	"off_snp":      MetricOffensiveSnaps,
	"pts_std":      MetricFantasyPointsStd,
	"pts_half_ppr": MetricFantasyPointsHalf,
	"pts_ppr":      MetricFantasyPointsPPR,
}

var nbaAliases = map[string]string{
	"gp":           MetricGamesPlayed,
	"pts":          MetricPoints,
	"reb":          MetricRebounds,
	"ast":          MetricAssists,
	"stl":          MetricSteals,
	"blk":          MetricBlocks,
	"to":           MetricTurnovers,
	"tpm":          MetricThreesMade,
	"fgm":          MetricFieldGoalsMadeNBA,
	"fga":          MetricFieldGoalsAttNBA,
	"min":          MetricMinutes,
	"pts_std":      MetricFantasyPointsStd,
	"pts_half_ppr": MetricFantasyPointsHalf,
	"pts_ppr":      MetricFantasyPointsPPR,
}

var aliasesBySport = map[string]map[string]string{
	"nfl": withCanonicalNames(nflAliases),
	"nba": withCanonicalNames(nbaAliases),
}

// withCanonicalNames lets payloads that already use canonical names map to themselves.
func withCanonicalNames(aliases map[string]string) map[string]string {
	out := make(map[string]string, len(aliases)*2)
	for alias, canonical := range aliases {
		out[alias] = canonical
		out[canonical] = canonical
	}
	return out
}

func SupportedSport(sport string) bool {
	_, ok := aliasesBySport[sport]
	return ok
}

func SupportedSports() []string {
	out := make([]string, 0, len(aliasesBySport))
	for sport := range aliasesBySport {
		out = append(out, sport)
	}
	slices.Sort(out)
	return out
}

// CanonicalMetrics lists every canonical metric name known for sport.
func CanonicalMetrics(sport string) []string {
	aliases := aliasesBySport[sport]
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, canonical := range aliases {
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	slices.Sort(out)
	return out
}

func zeroMetrics(sport string) map[string]float64 {
	names := CanonicalMetrics(sport)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = 0
	}
	return out
}

// mapMetrics keeps the recognized fields of a provider stats object. Fields
// are visited in sorted order so that two aliases of one metric resolve the
// same way on every run.
func mapMetrics(sport string, stats map[string]any) map[string]float64 {
	aliases := aliasesBySport[sport]
	fields := make([]string, 0, len(stats))
	for field := range stats {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	out := make(map[string]float64, len(fields))
	for _, field := range fields {
		canonical, ok := aliases[strings.ToLower(strings.TrimSpace(field))]
		if !ok {
			continue
		}
		value, ok := numericValue(stats[field])
		if !ok {
			continue
		}
		out[canonical] = value
	}
	return out
}

// numericValue accepts plain numbers, numeric strings and aggregate objects
// such as {"total": 12}.
func numericValue(v any) (float64, bool) {
	switch value := v.(type) {
	case nil:
		return 0, false
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint64:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return f, err == nil
	case map[string]any:
		for _, key := range []string{"total", "value", "all", "count"} {
			if inner, ok := value[key]; ok && inner != nil {
				return numericValue(inner)
			}
		}
	}
	return 0, false
}
