package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/fantasy-companion/internal/domain/preference"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
)

type PreferenceService struct {
	store  preference.Store
	logger *logging.Logger

	// merges are read-modify-write against one key
	mu sync.Mutex
}

func NewPreferenceService(store preference.Store, logger *logging.Logger) *PreferenceService {
	return &PreferenceService{store: store, logger: logging.OrDefault(logger)}
}

// GetStrategy returns the stored preferences, or an empty set when none exist
// or they expired.
func (s *PreferenceService) GetStrategy(ctx context.Context) (preference.Strategy, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PreferenceService.GetStrategy")
	defer span.End()

	current, ok, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load strategy preferences: %w", ErrDependencyUnavailable, err)
	}
	if !ok {
		return preference.Strategy{}, nil
	}
	return current, nil
}

// MergeStrategy applies patch over the stored preferences and resets the
// 30 day expiry.
func (s *PreferenceService) MergeStrategy(ctx context.Context, patch map[string]any) (preference.Strategy, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PreferenceService.MergeStrategy")
	defer span.End()

	if patch == nil {
		return nil, fmt.Errorf("%w: preferences body must be an object", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load strategy preferences: %w", ErrDependencyUnavailable, err)
	}

	merged := current.Merge(patch)
	if err := s.store.Save(ctx, merged, preference.StrategyTTL); err != nil {
		return nil, fmt.Errorf("%w: save strategy preferences: %w", ErrDependencyUnavailable, err)
	}

	s.logger.InfoContext(ctx, "strategy preferences updated", "keys", len(merged))
	return merged, nil
}
