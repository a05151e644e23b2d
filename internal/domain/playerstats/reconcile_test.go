package playerstats

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.UnmarshalString(raw, &out))
	return out
}

func baseInput() ReconcileInput {
	return ReconcileInput{
		PlayerID:    "100",
		Sport:       "nfl",
		Season:      "2024",
		SeasonStage: StageRegular,
		Kind:        KindStat,
		Grouping:    GroupingWeek,
		Now:         time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestReconcile_WeekGroupedPayload(t *testing.T) {
	t.Parallel()

	payload := decodePayload(t, `{
		"1": {"week": 1, "stats": {"pass_yd": 251, "pass_td": "2", "pts_ppr": 21.04, "unknown_field": 9}},
		"2": null,
		"3": {"stats": {}}
	}`)

	result := Reconcile(payload, baseInput())

	require.Empty(t, result.Errors)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []int{2, 3}, result.SkippedWeeks)

	record := result.Records[0]
	assert.Equal(t, Key{PlayerID: "100", Sport: "nfl", Season: "2024", SeasonStage: StageRegular, Week: 1}, record.Key)
	assert.Equal(t, StatTypeWeek, record.StatType)
	assert.Equal(t, map[string]float64{
		MetricPassingYards:     251,
		MetricPassingTDs:       2,
		MetricFantasyPointsPPR: 21.04,
	}, record.Metrics)
}

func TestReconcile_ZeroPolicyWritesEmptyWeeks(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.EmptyWeekPolicy = EmptyWeekZero
	result := Reconcile(decodePayload(t, `{"4": null}`), in)

	require.Len(t, result.Records, 1)
	assert.Empty(t, result.SkippedWeeks)
	record := result.Records[0]
	assert.Equal(t, 4, record.Week)
	assert.Len(t, record.Metrics, len(CanonicalMetrics("nfl")))
	for name, value := range record.Metrics {
		assert.Zerof(t, value, "metric %s", name)
	}
}

func TestReconcile_MalformedEntriesAreIsolated(t *testing.T) {
	t.Parallel()

	payload := decodePayload(t, `{
		"1": {"stats": {"rush_yd": 80}},
		"two": {"stats": {"rush_yd": 1}},
		"3": "oops",
		"4": {"stats": [1, 2]},
		"5": {"stats": {"rec": {"total": 7}, "rec_yd": "n/a"}}
	}`)

	result := Reconcile(payload, baseInput())

	require.Len(t, result.Records, 2)
	assert.Equal(t, 1, result.Records[0].Week)
	assert.Equal(t, 5, result.Records[1].Week)
	assert.Equal(t, map[string]float64{MetricReceptions: 7}, result.Records[1].Metrics)
	require.Len(t, result.Errors, 3)
	for _, err := range result.Errors {
		assert.Equal(t, "100", err.PlayerID)
		assert.NotEmpty(t, err.Error())
	}
}

func TestReconcile_SeasonGroupedPayload(t *testing.T) {
	t.Parallel()

	in := baseInput()
	in.Grouping = GroupingSeason
	in.Kind = KindProjection

	result := Reconcile(decodePayload(t, `{"stats": {"rec": 98, "rec_yd": 1205.5}}`), in)
	require.Len(t, result.Records, 1)
	record := result.Records[0]
	assert.Equal(t, 0, record.Week)
	assert.Equal(t, StatTypeRegular, record.StatType)
	assert.Equal(t, KindProjection, record.Kind)
	assert.Equal(t, 1205.5, record.Metrics[MetricReceivingYards])

	empty := Reconcile(map[string]any{}, in)
	assert.Empty(t, empty.Records)
	assert.Equal(t, []int{0}, empty.SkippedWeeks)
}

func TestReconcile_CanonicalNamesPassThrough(t *testing.T) {
	t.Parallel()

	result := Reconcile(decodePayload(t, `{"1": {"stats": {"passing_yards": 300, "pass_yd": 250}}}`), baseInput())
	require.Len(t, result.Records, 1)
	// passing_yards sorts after pass_yd and wins.
	assert.Equal(t, 300.0, result.Records[0].Metrics[MetricPassingYards])
}

func TestParseEmptyWeekPolicy(t *testing.T) {
	t.Parallel()

	policy, err := ParseEmptyWeekPolicy("")
	require.NoError(t, err)
	assert.Equal(t, EmptyWeekSkip, policy)

	policy, err = ParseEmptyWeekPolicy(" ZERO ")
	require.NoError(t, err)
	assert.Equal(t, EmptyWeekZero, policy)

	_, err = ParseEmptyWeekPolicy("fill")
	assert.Error(t, err)
}

func TestMergeMetrics(t *testing.T) {
	t.Parallel()

	merged := MergeMetrics(
		map[string]float64{MetricPassingYards: 200, MetricPassingTDs: 1},
		map[string]float64{MetricPassingYards: 260},
	)
	assert.Equal(t, map[string]float64{MetricPassingYards: 260, MetricPassingTDs: 1}, merged)
}
