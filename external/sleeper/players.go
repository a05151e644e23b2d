package sleeper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
)

var ErrEmptyCatalog = crerr.New("sleeper returned an empty player catalog")

// FetchCatalog downloads the full player dump for sport. The dump is several
// megabytes and should be cached by the caller.
func (c *Client) FetchCatalog(ctx context.Context, sport string) (player.Catalog, error) {
	sport = player.NormalizeSport(sport)
	if sport == "" {
		return player.Catalog{}, fmt.Errorf("sport is required")
	}

	doc, err := c.Get(ctx, ConnectorApp, "/players/"+url.PathEscape(sport), nil)
	if err != nil {
		return player.Catalog{}, fmt.Errorf("fetch player catalog sport=%s: %w", sport, err)
	}
	if doc.Empty() {
		return player.Catalog{}, fmt.Errorf("fetch player catalog sport=%s: %w", sport, ErrEmptyCatalog)
	}

	players := make(map[string]player.Identity, len(doc.Object))
	for key, raw := range doc.Object {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := firstNonEmpty(getString(item, "player_id"), key)
		players[id] = player.Identity{
			PlayerID: id,
			FullName: player.DisplayName(getString(item, "full_name"), getString(item, "first_name"), getString(item, "last_name")),
			Position: getString(item, "position"),
			Team:     getString(item, "team"),
		}
	}

	return player.Catalog{
		Sport:     sport,
		Players:   players,
		FetchedAt: time.Now().UTC(),
	}, nil
}
