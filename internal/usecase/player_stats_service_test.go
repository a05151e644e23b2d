package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerStatsService_ListByPlayer(t *testing.T) {
	t.Parallel()

	repo := memory.NewPlayerStatsRepository()
	for _, week := range []int{3, 1} {
		_, err := repo.UpsertStat(context.Background(), playerstats.Record{
			Key:       playerstats.Key{PlayerID: "4046", Sport: "nfl", Season: "2024", SeasonStage: playerstats.StageRegular, Week: week},
			Kind:      playerstats.KindStat,
			StatType:  playerstats.StatTypeWeek,
			Metrics:   map[string]float64{"pass_yd": float64(100 * week)},
			UpdatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	svc := NewPlayerStatsService(repo)
	records, err := svc.ListByPlayer(context.Background(), playerstats.KindStat, playerstats.Query{
		PlayerID: " 4046 ",
		Sport:    "NFL",
		Season:   "2024",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Week)
	assert.Equal(t, 3, records[1].Week)

	projections, err := svc.ListByPlayer(context.Background(), playerstats.KindProjection, playerstats.Query{
		PlayerID: "4046", Sport: "nfl", Season: "2024",
	})
	require.NoError(t, err)
	assert.Empty(t, projections)
}

func TestPlayerStatsService_ListByPlayerValidation(t *testing.T) {
	t.Parallel()

	svc := NewPlayerStatsService(memory.NewPlayerStatsRepository())
	cases := map[string]struct {
		kind  playerstats.Kind
		query playerstats.Query
	}{
		"unknown kind":      {kind: "ranking", query: playerstats.Query{PlayerID: "1", Sport: "nfl", Season: "2024"}},
		"missing player":    {kind: playerstats.KindStat, query: playerstats.Query{Sport: "nfl", Season: "2024"}},
		"unsupported sport": {kind: playerstats.KindStat, query: playerstats.Query{PlayerID: "1", Sport: "curling", Season: "2024"}},
		"missing season":    {kind: playerstats.KindStat, query: playerstats.Query{PlayerID: "1", Sport: "nfl"}},
		"bad stage":         {kind: playerstats.KindStat, query: playerstats.Query{PlayerID: "1", Sport: "nfl", Season: "2024", SeasonStage: "playoffs"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ListByPlayer(context.Background(), tc.kind, tc.query)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
