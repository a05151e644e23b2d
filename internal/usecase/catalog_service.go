package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	"github.com/riskibarqy/fantasy-companion/internal/platform/cache"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

const defaultCatalogTTL = 24 * time.Hour

type CatalogConfig struct {
	TTL time.Duration
}

// CatalogService keeps one immutable catalog snapshot per sport. Readers
// never see a partially built catalog: a refresh builds a new snapshot and
// publishes it with a single pointer swap.
type CatalogService struct {
	source player.Source
	shared cache.Backend
	ttl    time.Duration
	logger *logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	snapshots map[string]*atomic.Pointer[player.Catalog]
	flight    singleflight.Group
}

// NewCatalogService builds the cache. shared is optional; when set, freshly
// fetched catalogs are mirrored there so other processes can skip the
// upstream download.
func NewCatalogService(source player.Source, shared cache.Backend, cfg CatalogConfig, logger *logging.Logger) *CatalogService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCatalogTTL
	}
	return &CatalogService{
		source:    source,
		shared:    shared,
		ttl:       cfg.TTL,
		logger:    logging.OrDefault(logger),
		now:       time.Now,
		snapshots: make(map[string]*atomic.Pointer[player.Catalog]),
	}
}

func (s *CatalogService) GetCatalog(ctx context.Context, sport string) (player.Catalog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.GetCatalog", attribute.String("sport", sport))
	defer span.End()

	sport = player.NormalizeSport(sport)
	if sport == "" {
		return player.Catalog{}, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}

	if current := s.fresh(sport); current != nil {
		return *current, nil
	}
	return s.refresh(ctx, sport, false)
}

// Refresh downloads the catalog even if the current snapshot is still fresh.
func (s *CatalogService) Refresh(ctx context.Context, sport string) (player.Catalog, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.Refresh", attribute.String("sport", sport))
	defer span.End()

	sport = player.NormalizeSport(sport)
	if sport == "" {
		return player.Catalog{}, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	return s.refresh(ctx, sport, true)
}

// Invalidate drops the local and shared snapshot so the next read refetches.
func (s *CatalogService) Invalidate(ctx context.Context, sport string) {
	sport = player.NormalizeSport(sport)
	s.slot(sport).Store(nil)
	if s.shared == nil {
		return
	}
	if err := s.shared.Delete(ctx, catalogCacheKey(sport)); err != nil {
		s.logger.WarnContext(ctx, "delete shared catalog failed", "sport", sport, "error", err)
	}
}

// Resolve maps each unique requested id to its display fields. Unknown ids
// are returned with Found=false; they never fail the call.
func (s *CatalogService) Resolve(ctx context.Context, ids []string, sport string) (map[string]player.Resolved, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.Resolve", attribute.Int("ids", len(ids)))
	defer span.End()

	catalog, err := s.GetCatalog(ctx, sport)
	if err != nil {
		return nil, err
	}

	unique := player.NormalizeIDs(ids)
	out := make(map[string]player.Resolved, len(unique))
	for _, id := range unique {
		identity, ok := catalog.Lookup(id)
		if !ok {
			out[id] = player.Resolved{PlayerID: id}
			continue
		}
		out[id] = player.Resolved{
			PlayerID: id,
			Name:     identity.FullName,
			Position: identity.Position,
			Team:     identity.Team,
			Found:    true,
		}
	}
	return out, nil
}

func (s *CatalogService) slot(sport string) *atomic.Pointer[player.Catalog] {
	s.mu.Lock()
	defer s.mu.Unlock()

	ptr, ok := s.snapshots[sport]
	if !ok {
		ptr = &atomic.Pointer[player.Catalog]{}
		s.snapshots[sport] = ptr
	}
	return ptr
}

func (s *CatalogService) fresh(sport string) *player.Catalog {
	current := s.slot(sport).Load()
	if current == nil || current.ExpiredAt(s.now(), s.ttl) {
		return nil
	}
	return current
}

func (s *CatalogService) refresh(ctx context.Context, sport string, force bool) (player.Catalog, error) {
	key := sport
	if force {
		key = "force:" + sport
	}

	// The refresh is shared by every waiting caller, so one caller going away
	// must not abort it for the others.
	loadCtx := context.WithoutCancel(ctx)
	out, err, _ := s.flight.Do(key, func() (any, error) {
		if !force {
			if current := s.fresh(sport); current != nil {
				return *current, nil
			}
			if shared, ok := s.loadShared(loadCtx, sport); ok {
				s.slot(sport).Store(&shared)
				return shared, nil
			}
		}

		started := s.now()
		catalog, err := s.source.FetchCatalog(loadCtx, sport)
		if err != nil {
			if stale := s.slot(sport).Load(); stale != nil {
				s.logger.WarnContext(loadCtx, "catalog refresh failed, serving stale snapshot",
					"sport", sport,
					"fetched_at", stale.FetchedAt,
					"error", err,
				)
				return *stale, nil
			}
			return nil, fmt.Errorf("refresh catalog sport=%s: %w", sport, err)
		}
		if catalog.FetchedAt.IsZero() {
			catalog.FetchedAt = s.now().UTC()
		}
		catalog.Sport = sport

		s.slot(sport).Store(&catalog)
		s.storeShared(loadCtx, catalog)
		s.logger.InfoContext(loadCtx, "catalog refreshed",
			"sport", sport,
			"players", catalog.Len(),
			"duration_ms", s.now().Sub(started).Milliseconds(),
		)
		return catalog, nil
	})
	if err != nil {
		return player.Catalog{}, err
	}
	return out.(player.Catalog), nil
}

func (s *CatalogService) loadShared(ctx context.Context, sport string) (player.Catalog, bool) {
	if s.shared == nil {
		return player.Catalog{}, false
	}

	var catalog player.Catalog
	ok, err := cache.GetJSON(ctx, s.shared, catalogCacheKey(sport), &catalog)
	if err != nil {
		s.logger.WarnContext(ctx, "read shared catalog failed", "sport", sport, "error", err)
		return player.Catalog{}, false
	}
	if !ok || catalog.ExpiredAt(s.now(), s.ttl) || catalog.Len() == 0 {
		return player.Catalog{}, false
	}
	return catalog, true
}

func (s *CatalogService) storeShared(ctx context.Context, catalog player.Catalog) {
	if s.shared == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.shared, catalogCacheKey(catalog.Sport), catalog, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "write shared catalog failed", "sport", catalog.Sport, "error", err)
	}
}

func catalogCacheKey(sport string) string {
	return "catalog:" + sport
}
