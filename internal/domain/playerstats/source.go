package playerstats

import "context"

// FetchQuery selects one player's provider payload for a season.
type FetchQuery struct {
	PlayerID    string
	Sport       string
	Season      string
	SeasonStage string
	Grouping    string
}

// Source returns raw provider payloads. The returned map is never nil.
type Source interface {
	FetchStats(ctx context.Context, query FetchQuery) (map[string]any, error)
	FetchProjections(ctx context.Context, query FetchQuery) (map[string]any, error)
}
