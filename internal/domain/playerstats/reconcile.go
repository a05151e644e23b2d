package playerstats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

type EmptyWeekPolicy string

const (
	// EmptyWeekSkip writes nothing for a week without stats.
	EmptyWeekSkip EmptyWeekPolicy = "skip"
	// EmptyWeekZero writes a record with every canonical metric set to 0.
	EmptyWeekZero EmptyWeekPolicy = "zero"
)

func ParseEmptyWeekPolicy(raw string) (EmptyWeekPolicy, error) {
	switch EmptyWeekPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EmptyWeekSkip:
		return EmptyWeekSkip, nil
	case EmptyWeekZero:
		return EmptyWeekZero, nil
	default:
		return "", fmt.Errorf("invalid empty week policy %q: valid values are %s, %s", raw, EmptyWeekSkip, EmptyWeekZero)
	}
}

// ReconciliationError reports one payload entry that could not be mapped.
// The rest of the payload is still reconciled.
type ReconciliationError struct {
	PlayerID string
	Entry    string
	Reason   string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile player=%s entry=%s: %s", e.PlayerID, e.Entry, e.Reason)
}

type ReconcileInput struct {
	PlayerID        string
	Sport           string
	Season          string
	SeasonStage     string
	Kind            Kind
	Grouping        string
	EmptyWeekPolicy EmptyWeekPolicy
	Now             time.Time
}

type ReconcileResult struct {
	Records []Record
	// SkippedWeeks lists weeks dropped by EmptyWeekSkip.
	SkippedWeeks []int
	Errors       []*ReconciliationError
}

// Reconcile turns a provider payload for one player into records keyed by
// (player, sport, season, stage, week). Week-grouped payloads map week
// numbers to {"stats": {...}} objects or null. Season-grouped payloads are a
// single {"stats": {...}} object stored as week 0.
func Reconcile(raw map[string]any, in ReconcileInput) ReconcileResult {
	if in.Kind == "" {
		in.Kind = KindStat
	}
	if in.EmptyWeekPolicy == "" {
		in.EmptyWeekPolicy = EmptyWeekSkip
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}

	if in.Grouping == GroupingSeason {
		return reconcileSeason(raw, in)
	}
	return reconcileWeeks(raw, in)
}

func reconcileWeeks(raw map[string]any, in ReconcileInput) ReconcileResult {
	type weekEntry struct {
		week  int
		key   string
		value any
	}

	var result ReconcileResult
	entries := make([]weekEntry, 0, len(raw))
	for key, value := range raw {
		week, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || week < 1 {
			result.Errors = append(result.Errors, &ReconciliationError{
				PlayerID: in.PlayerID,
				Entry:    key,
				Reason:   "week key is not a positive number",
			})
			continue
		}
		entries = append(entries, weekEntry{week: week, key: key, value: value})
	}
	slices.SortFunc(entries, func(a, b weekEntry) int { return a.week - b.week })

	for _, entry := range entries {
		metrics, reason := weekMetrics(entry.value, in.Sport)
		if reason != "" {
			result.Errors = append(result.Errors, &ReconciliationError{
				PlayerID: in.PlayerID,
				Entry:    entry.key,
				Reason:   reason,
			})
			continue
		}
		result.add(in, entry.week, StatTypeWeek, metrics)
	}
	slices.Sort(result.SkippedWeeks)
	return result
}

func reconcileSeason(raw map[string]any, in ReconcileInput) ReconcileResult {
	var result ReconcileResult
	var value any
	if len(raw) > 0 {
		value = raw
	}

	metrics, reason := weekMetrics(value, in.Sport)
	if reason != "" {
		result.Errors = append(result.Errors, &ReconciliationError{
			PlayerID: in.PlayerID,
			Entry:    GroupingSeason,
			Reason:   reason,
		})
		return result
	}
	result.add(in, 0, StatTypeRegular, metrics)
	return result
}

// weekMetrics extracts canonical metrics from one entry. A nil map with an
// empty reason means the entry carries no data.
func weekMetrics(value any, sport string) (map[string]float64, string) {
	if value == nil {
		return nil, ""
	}
	entry, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Sprintf("entry is %T, expected object", value)
	}
	rawStats, present := entry["stats"]
	if !present || rawStats == nil {
		return nil, ""
	}
	stats, ok := rawStats.(map[string]any)
	if !ok {
		return nil, fmt.Sprintf("stats is %T, expected object", rawStats)
	}
	return mapMetrics(sport, stats), ""
}

func (r *ReconcileResult) add(in ReconcileInput, week int, statType StatType, metrics map[string]float64) {
	if len(metrics) == 0 {
		if in.EmptyWeekPolicy != EmptyWeekZero {
			r.SkippedWeeks = append(r.SkippedWeeks, week)
			return
		}
		metrics = zeroMetrics(in.Sport)
	}

	r.Records = append(r.Records, Record{
		Key: Key{
			PlayerID:    in.PlayerID,
			Sport:       in.Sport,
			Season:      in.Season,
			SeasonStage: in.SeasonStage,
			Week:        week,
		},
		Kind:      in.Kind,
		StatType:  statType,
		Metrics:   metrics,
		UpdatedAt: in.Now,
	})
}
