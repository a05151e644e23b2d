package preference

import (
	"context"
	"time"
)

// StrategyKey is the single storage key holding the user's strategy preferences.
const StrategyKey = "strategy_preferences"

// StrategyTTL is how long an untouched preference set is retained.
const StrategyTTL = 30 * 24 * time.Hour

// Strategy is a freeform set of draft and lineup preferences.
type Strategy map[string]any

// Merge returns a copy of s with every non-null field of patch applied.
// Null fields in patch leave the stored value untouched.
func (s Strategy) Merge(patch map[string]any) Strategy {
	out := make(Strategy, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

type Store interface {
	Load(ctx context.Context) (Strategy, bool, error)
	Save(ctx context.Context, strategy Strategy, ttl time.Duration) error
}
