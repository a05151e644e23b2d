package player

import "context"

// Source loads a full catalog for one sport from the upstream platform.
type Source interface {
	FetchCatalog(ctx context.Context, sport string) (Catalog, error)
}
