package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-companion/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/fantasy-companion/internal/platform/querybuilder"
)

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	jobPath := strings.TrimSpace(event.JobPath)
	if jobPath == "" {
		jobPath = "/unknown"
	}
	scope := strings.TrimSpace(event.Scope)
	if scope == "" {
		scope = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalJSONObject(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job dispatch payload: %w", err)
	}
	model := jobDispatchInsertModel{
		DispatchID: dispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		Scope:      scope,
		Payload:    payloadJSON,
		Status:     string(event.Status),
		LastError:  optionalString(event.ErrorMessage),
	}
	if len(event.Result) > 0 {
		resultJSON, err := marshalJSONObject(event.Result)
		if err != nil {
			return fmt.Errorf("marshal job dispatch result: %w", err)
		}
		model.Result = &resultJSON
	}

	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt = &occurredAt
		model.SentTraceID = optionalString(event.TraceID)
		model.SentSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.CompletedTraceID = optionalString(event.TraceID)
		model.CompletedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusFailed:
		model.FailedAt = &occurredAt
		model.FailedTraceID = optionalString(event.TraceID)
		model.FailedSpanID = optionalString(event.SpanID)
	}

	query, args, err := qb.InsertModel("job_dispatches", model, `ON CONFLICT (dispatch_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    scope = EXCLUDED.scope,
    payload = EXCLUDED.payload,
    result = COALESCE(EXCLUDED.result, job_dispatches.result),
    status = EXCLUDED.status,
    sent_at = COALESCE(job_dispatches.sent_at, EXCLUDED.sent_at),
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE job_dispatches.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        ELSE job_dispatches.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE job_dispatches.last_error
    END,
    sent_trace_id = COALESCE(job_dispatches.sent_trace_id, EXCLUDED.sent_trace_id),
    sent_span_id = COALESCE(job_dispatches.sent_span_id, EXCLUDED.sent_span_id),
    completed_trace_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_trace_id
        ELSE job_dispatches.completed_trace_id
    END,
    completed_span_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_span_id
        ELSE job_dispatches.completed_span_id
    END,
    failed_trace_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_trace_id
        ELSE job_dispatches.failed_trace_id
    END,
    failed_span_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_span_id
        ELSE job_dispatches.failed_span_id
    END,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}

	err = retryStatement(ctx, func(ctx context.Context) error {
		_, execErr := r.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", dispatchID, event.Status, err)
	}
	return nil
}

func (r *JobDispatchRepository) GetByID(ctx context.Context, dispatchID string) (jobscheduler.Dispatch, bool, error) {
	query, args, err := qb.Select(qb.Columns(jobDispatchRow{})...).
		From("job_dispatches").
		Where(qb.Eq("dispatch_id", dispatchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return jobscheduler.Dispatch{}, false, fmt.Errorf("build get job dispatch query: %w", err)
	}

	var row jobDispatchRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return jobscheduler.Dispatch{}, false, nil
		}
		return jobscheduler.Dispatch{}, false, fmt.Errorf("get job dispatch dispatch_id=%s: %w", dispatchID, err)
	}

	item := jobscheduler.Dispatch{
		DispatchID:  row.DispatchID,
		JobName:     row.JobName,
		Scope:       row.Scope,
		Status:      jobscheduler.DispatchStatus(row.Status),
		SentAt:      row.SentAt,
		CompletedAt: row.CompletedAt,
		FailedAt:    row.FailedAt,
	}
	if row.LastError != nil {
		item.LastError = *row.LastError
	}
	if len(row.Payload) > 0 {
		if err := sonic.Unmarshal(row.Payload, &item.Payload); err != nil {
			return jobscheduler.Dispatch{}, false, fmt.Errorf("decode job dispatch payload: %w", err)
		}
	}
	if len(row.Result) > 0 {
		if err := sonic.Unmarshal(row.Result, &item.Result); err != nil {
			return jobscheduler.Dispatch{}, false, fmt.Errorf("decode job dispatch result: %w", err)
		}
	}
	return item, true, nil
}

func marshalJSONObject(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	return sonic.MarshalString(payload)
}
