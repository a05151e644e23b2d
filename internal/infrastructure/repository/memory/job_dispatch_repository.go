package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/riskibarqy/fantasy-companion/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	mu    sync.RWMutex
	items map[string]jobscheduler.Dispatch
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{items: make(map[string]jobscheduler.Dispatch)}
}

// UpsertEvent folds event into the dispatch row the same way the postgres
// upsert does: timestamps are set once per status, the last error sticks.
func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[event.DispatchID]
	if !ok {
		item = jobscheduler.Dispatch{DispatchID: event.DispatchID}
	}
	item.JobName = event.JobName
	item.Scope = event.Scope
	item.Status = event.Status
	if event.Payload != nil {
		item.Payload = maps.Clone(event.Payload)
	}
	if event.Result != nil {
		item.Result = maps.Clone(event.Result)
	}
	if event.ErrorMessage != "" {
		item.LastError = event.ErrorMessage
	}

	at := event.OccurredAt
	switch event.Status {
	case jobscheduler.StatusSent:
		if item.SentAt == nil {
			item.SentAt = &at
		}
	case jobscheduler.StatusCompleted:
		item.CompletedAt = &at
	case jobscheduler.StatusFailed:
		item.FailedAt = &at
	}

	r.items[event.DispatchID] = item
	return nil
}

func (r *JobDispatchRepository) GetByID(_ context.Context, dispatchID string) (jobscheduler.Dispatch, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[dispatchID]
	return item, ok, nil
}
