package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
)

func testRecord(week int, metrics map[string]float64) playerstats.Record {
	return playerstats.Record{
		Key: playerstats.Key{
			PlayerID:    "100",
			Sport:       "nfl",
			Season:      "2024",
			SeasonStage: playerstats.StageRegular,
			Week:        week,
		},
		StatType:  playerstats.StatTypeWeek,
		Metrics:   metrics,
		UpdatedAt: time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlayerStatsRepository_StatUpsertReplacesMetrics(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerStatsRepository()

	outcome, err := repo.UpsertStat(ctx, testRecord(1, map[string]float64{"passing_yards": 250, "passing_tds": 2}))
	if err != nil || outcome != playerstats.OutcomeCreated {
		t.Fatalf("first upsert outcome=%s err=%v", outcome, err)
	}
	outcome, err = repo.UpsertStat(ctx, testRecord(1, map[string]float64{"passing_yards": 260}))
	if err != nil || outcome != playerstats.OutcomeUpdated {
		t.Fatalf("second upsert outcome=%s err=%v", outcome, err)
	}

	items, err := repo.ListByPlayer(ctx, playerstats.KindStat, playerstats.Query{PlayerID: "100", Sport: "nfl", Season: "2024"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one record per key, got %d", len(items))
	}
	if _, kept := items[0].Metrics["passing_tds"]; kept {
		t.Fatalf("stat upsert must replace metrics, got %v", items[0].Metrics)
	}
}

func TestPlayerStatsRepository_ProjectionUpsertMergesMetrics(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerStatsRepository()

	if _, err := repo.UpsertProjection(ctx, testRecord(2, map[string]float64{"rushing_yards": 70, "rushing_tds": 0.5})); err != nil {
		t.Fatalf("upsert projection: %v", err)
	}
	if _, err := repo.UpsertProjection(ctx, testRecord(2, map[string]float64{"rushing_yards": 82})); err != nil {
		t.Fatalf("upsert projection: %v", err)
	}

	items, err := repo.ListByPlayer(ctx, playerstats.KindProjection, playerstats.Query{PlayerID: "100", Sport: "nfl", Season: "2024", SeasonStage: "regular"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected projections %v", items)
	}
	if items[0].Metrics["rushing_yards"] != 82 || items[0].Metrics["rushing_tds"] != 0.5 {
		t.Fatalf("unexpected merged metrics %v", items[0].Metrics)
	}
	if items[0].Kind != playerstats.KindProjection {
		t.Fatalf("unexpected kind %s", items[0].Kind)
	}
}

func TestPlayerStatsRepository_ListIsOrderedByWeek(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerStatsRepository()
	for _, week := range []int{3, 1, 2} {
		if _, err := repo.UpsertStat(ctx, testRecord(week, map[string]float64{"receptions": float64(week)})); err != nil {
			t.Fatalf("upsert week %d: %v", week, err)
		}
	}

	items, err := repo.ListByPlayer(ctx, playerstats.KindStat, playerstats.Query{PlayerID: "100", Sport: "nfl", Season: "2024"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, item := range items {
		if item.Week != i+1 {
			t.Fatalf("unexpected order: %+v", items)
		}
	}
}

func TestPlayerStatsRepository_RejectsInvalidKeyAndOutage(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerStatsRepository()

	bad := testRecord(1, nil)
	bad.SeasonStage = "spring"
	if _, err := repo.UpsertStat(ctx, bad); err == nil {
		t.Fatalf("expected key validation error")
	}

	repo.SetUnavailable(true)
	if err := repo.Ping(ctx); !errors.Is(err, playerstats.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
	if _, err := repo.UpsertStat(ctx, testRecord(1, nil)); !errors.Is(err, playerstats.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable on write, got %v", err)
	}
	repo.SetUnavailable(false)
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}
