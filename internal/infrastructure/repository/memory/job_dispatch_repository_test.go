package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/jobscheduler"
)

func TestJobDispatchRepository_FoldsEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewJobDispatchRepository()
	sentAt := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	events := []jobscheduler.DispatchEvent{
		{DispatchID: "ingest-nfl-2024-regular-ab12", JobName: "ingest-player-stats", Scope: "nfl:2024:regular", Status: jobscheduler.StatusSent, OccurredAt: sentAt},
		{DispatchID: "ingest-nfl-2024-regular-ab12", JobName: "ingest-player-stats", Scope: "nfl:2024:regular", Status: jobscheduler.StatusFailed, ErrorMessage: "storage down", OccurredAt: sentAt.Add(time.Minute)},
		{DispatchID: "ingest-nfl-2024-regular-ab12", JobName: "ingest-player-stats", Scope: "nfl:2024:regular", Status: jobscheduler.StatusSent, OccurredAt: sentAt.Add(2 * time.Minute)},
		{DispatchID: "ingest-nfl-2024-regular-ab12", JobName: "ingest-player-stats", Scope: "nfl:2024:regular", Status: jobscheduler.StatusCompleted, Result: map[string]any{"stats_created": 4}, OccurredAt: sentAt.Add(3 * time.Minute)},
	}
	for _, event := range events {
		if err := repo.UpsertEvent(ctx, event); err != nil {
			t.Fatalf("upsert event: %v", err)
		}
	}

	got, ok, err := repo.GetByID(ctx, "ingest-nfl-2024-regular-ab12")
	if err != nil || !ok {
		t.Fatalf("get dispatch ok=%t err=%v", ok, err)
	}
	if got.Status != jobscheduler.StatusCompleted {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.SentAt == nil || !got.SentAt.Equal(sentAt) {
		t.Fatalf("sent_at must keep the first send, got %v", got.SentAt)
	}
	if got.FailedAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected failed and completed timestamps, got %+v", got)
	}
	if got.LastError != "storage down" {
		t.Fatalf("unexpected last error %q", got.LastError)
	}
	if got.Result["stats_created"] != 4 {
		t.Fatalf("unexpected result %v", got.Result)
	}
}
