package playerstats

import (
	"context"
	"errors"
)

// ErrStorageUnavailable marks failures where the store itself cannot be
// reached. Callers abort the whole job on it rather than skipping one item.
var ErrStorageUnavailable = errors.New("player stats storage unavailable")

type Query struct {
	PlayerID    string
	Sport       string
	Season      string
	SeasonStage string
}

type Repository interface {
	// UpsertStat fully replaces the metrics stored under the record key.
	UpsertStat(ctx context.Context, record Record) (UpsertOutcome, error)
	// UpsertProjection merges metrics into the existing row, if any.
	UpsertProjection(ctx context.Context, record Record) (UpsertOutcome, error)
	ListByPlayer(ctx context.Context, kind Kind, query Query) ([]Record, error)
	Ping(ctx context.Context) error
}

// Upsert dispatches to the upsert matching record.Kind.
func Upsert(ctx context.Context, repo Repository, record Record) (UpsertOutcome, error) {
	if record.Kind == KindProjection {
		return repo.UpsertProjection(ctx, record)
	}
	return repo.UpsertStat(ctx, record)
}
