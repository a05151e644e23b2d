package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/fantasy-companion/internal/domain/preference"
	repocache "github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-companion/internal/platform/cache"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	preferencemock "github.com/riskibarqy/fantasy-companion/internal/mocks/domain/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPreferenceService_MergeIsLastWriteWins(t *testing.T) {
	t.Parallel()

	service := NewPreferenceService(repocache.NewPreferenceStore(cache.NewMemoryBackend()), logging.NewNop())
	ctx := context.Background()

	empty, err := service.GetStrategy(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = service.MergeStrategy(ctx, map[string]any{"risk": "high", "zero_rb": true})
	require.NoError(t, err)

	merged, err := service.MergeStrategy(ctx, map[string]any{"risk": "low", "zero_rb": nil, "stack_qb": "KC"})
	require.NoError(t, err)
	assert.Equal(t, preference.Strategy{"risk": "low", "zero_rb": true, "stack_qb": "KC"}, merged)

	stored, err := service.GetStrategy(ctx)
	require.NoError(t, err)
	assert.Equal(t, "low", stored["risk"])
	assert.Equal(t, true, stored["zero_rb"])
}

func TestPreferenceService_SavesWithThirtyDayTTL(t *testing.T) {
	t.Parallel()

	store := preferencemock.NewStore(t)
	store.On("Load", mock.Anything).Return(preference.Strategy{"risk": "high"}, true, nil).Once()
	store.
		On("Save", mock.Anything, preference.Strategy{"risk": "high", "punt": "te"}, preference.StrategyTTL).
		Return(nil).
		Once()

	service := NewPreferenceService(store, logging.NewNop())
	_, err := service.MergeStrategy(context.Background(), map[string]any{"punt": "te"})
	require.NoError(t, err)
}

func TestPreferenceService_StoreFailure(t *testing.T) {
	t.Parallel()

	store := preferencemock.NewStore(t)
	store.On("Load", mock.Anything).Return(nil, false, errors.New("redis down")).Once()

	service := NewPreferenceService(store, logging.NewNop())
	_, err := service.GetStrategy(context.Background())
	require.ErrorIs(t, err, ErrDependencyUnavailable)

	_, err = service.MergeStrategy(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}
