package sleeper

import (
	"context"
	"fmt"
	"net/url"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
)

func (c *Client) FetchStats(ctx context.Context, query playerstats.FetchQuery) (map[string]any, error) {
	return c.fetchPlayerSeries(ctx, "stats", query)
}

func (c *Client) FetchProjections(ctx context.Context, query playerstats.FetchQuery) (map[string]any, error) {
	return c.fetchPlayerSeries(ctx, "projections", query)
}

// fetchPlayerSeries loads /{resource}/{sport}/player/{id}. With week grouping
// the body is keyed by week number; with season grouping it is one object.
func (c *Client) fetchPlayerSeries(ctx context.Context, resource string, query playerstats.FetchQuery) (map[string]any, error) {
	if query.PlayerID == "" || query.Sport == "" || query.Season == "" {
		return nil, fmt.Errorf("player id, sport and season are required")
	}

	grouping := query.Grouping
	if grouping == "" {
		grouping = playerstats.GroupingWeek
	}
	stage := query.SeasonStage
	if stage == "" {
		stage = playerstats.StageRegular
	}

	params := url.Values{}
	params.Set("season", query.Season)
	params.Set("season_type", stage)
	params.Set("grouping", grouping)

	path := fmt.Sprintf("/%s/%s/player/%s", resource, url.PathEscape(query.Sport), url.PathEscape(query.PlayerID))
	doc, err := c.Get(ctx, ConnectorStats, path, params)
	if err != nil {
		return nil, fmt.Errorf("fetch %s player=%s season=%s: %w", resource, query.PlayerID, query.Season, err)
	}
	return doc.Object, nil
}
