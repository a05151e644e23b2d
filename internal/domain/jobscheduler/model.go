package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// DispatchEvent is one status transition of a queued or synchronous job.
// Scope names what the job covers, e.g. "nfl:2024:regular".
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	Scope        string
	Status       DispatchStatus
	Payload      map[string]any
	Result       map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

// Dispatch is the accumulated view of all events for one dispatch id.
type Dispatch struct {
	DispatchID  string
	JobName     string
	Scope       string
	Status      DispatchStatus
	Payload     map[string]any
	Result      map[string]any
	LastError   string
	SentAt      *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}
