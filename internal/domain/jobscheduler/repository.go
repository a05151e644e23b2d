package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	GetByID(ctx context.Context, dispatchID string) (Dispatch, bool, error)
}
