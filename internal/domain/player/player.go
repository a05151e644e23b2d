package player

import (
	"slices"
	"strings"
	"time"
)

// Identity is one catalog entry as published by the fantasy platform.
type Identity struct {
	PlayerID string `json:"player_id"`
	FullName string `json:"full_name"`
	Position string `json:"position"`
	Team     string `json:"team"`
}

// Catalog is a complete per-sport snapshot. It is built once per refresh and
// never mutated after it is published.
type Catalog struct {
	Sport     string              `json:"sport"`
	Players   map[string]Identity `json:"players"`
	FetchedAt time.Time           `json:"fetched_at"`
}

func (c Catalog) Lookup(playerID string) (Identity, bool) {
	identity, ok := c.Players[playerID]
	return identity, ok
}

func (c Catalog) Len() int {
	return len(c.Players)
}

// IDs returns every player id in the snapshot in ascending order.
func (c Catalog) IDs() []string {
	out := make([]string, 0, len(c.Players))
	for id := range c.Players {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (c Catalog) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if c.FetchedAt.IsZero() {
		return true
	}
	return ttl > 0 && !now.Before(c.FetchedAt.Add(ttl))
}

// Resolved is the display view of a requested player id. Found is false when
// the id is not in the catalog, in which case the other fields are empty.
type Resolved struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	Found    bool   `json:"found"`
}

// DisplayName prefers the full name and falls back to "first last".
func DisplayName(fullName, firstName, lastName string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
}

func NormalizeSport(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}

// NormalizeIDs trims ids, drops blanks and keeps the first occurrence of each.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
