package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/preference"
	basecache "github.com/riskibarqy/fantasy-companion/internal/platform/cache"
)

// PreferenceStore keeps strategy preferences under a single cache key.
type PreferenceStore struct {
	backend basecache.Backend
	key     string
}

func NewPreferenceStore(backend basecache.Backend) *PreferenceStore {
	return &PreferenceStore{backend: backend, key: preference.StrategyKey}
}

func (s *PreferenceStore) Load(ctx context.Context) (preference.Strategy, bool, error) {
	var out preference.Strategy
	ok, err := basecache.GetJSON(ctx, s.backend, s.key, &out)
	if err != nil || !ok {
		return nil, false, err
	}
	if out == nil {
		out = preference.Strategy{}
	}
	return out, true, nil
}

func (s *PreferenceStore) Save(ctx context.Context, strategy preference.Strategy, ttl time.Duration) error {
	if strategy == nil {
		strategy = preference.Strategy{}
	}
	return basecache.SetJSON(ctx, s.backend, s.key, strategy, ttl)
}
