package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	"go.opentelemetry.io/otel/attribute"
)

type PlayerStatsService struct {
	repo playerstats.Repository
}

func NewPlayerStatsService(repo playerstats.Repository) *PlayerStatsService {
	return &PlayerStatsService{repo: repo}
}

// ListByPlayer returns stored records for one player ordered by week.
func (s *PlayerStatsService) ListByPlayer(ctx context.Context, kind playerstats.Kind, query playerstats.Query) ([]playerstats.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerStatsService.ListByPlayer",
		attribute.String("kind", string(kind)),
		attribute.String("player_id", query.PlayerID),
	)
	defer span.End()

	query.PlayerID = strings.TrimSpace(query.PlayerID)
	query.Sport = player.NormalizeSport(query.Sport)
	query.Season = strings.TrimSpace(query.Season)
	query.SeasonStage = strings.ToLower(strings.TrimSpace(query.SeasonStage))
	if query.SeasonStage == "" {
		query.SeasonStage = playerstats.StageRegular
	}

	switch {
	case kind != playerstats.KindStat && kind != playerstats.KindProjection:
		return nil, fmt.Errorf("%w: invalid kind %q", ErrInvalidInput, kind)
	case query.PlayerID == "":
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	case !playerstats.SupportedSport(query.Sport):
		return nil, fmt.Errorf("%w: unsupported sport %q", ErrInvalidInput, query.Sport)
	case query.Season == "":
		return nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	case !playerstats.ValidStage(query.SeasonStage):
		return nil, fmt.Errorf("%w: invalid season stage %q", ErrInvalidInput, query.SeasonStage)
	}

	items, err := s.repo.ListByPlayer(ctx, kind, query)
	if err != nil {
		return nil, fmt.Errorf("list %s records player=%s: %w", kind, query.PlayerID, err)
	}
	return items, nil
}
