package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
)

const (
	IngestJobName = "ingest-player-stats"
	IngestJobPath = "/v1/internal/jobs/ingest"
)

type DispatchMode string

const (
	DispatchSync   DispatchMode = "sync"
	DispatchQueued DispatchMode = "queued"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// CatalogReader lists every known player of a sport for whole-catalog runs.
type CatalogReader interface {
	GetCatalog(ctx context.Context, sport string) (player.Catalog, error)
}

type DispatchInput struct {
	IngestInput
	Mode       DispatchMode `json:"mode"`
	AllPlayers bool         `json:"all_players"`
}

type DispatchResult struct {
	Mode        DispatchMode     `json:"mode"`
	DispatchIDs []string         `json:"dispatch_ids"`
	Players     int              `json:"players"`
	Report      *IngestionReport `json:"report,omitempty"`
}

// IngestJob is the body delivered to the ingest job endpoint by a queue.
type IngestJob struct {
	DispatchID string `json:"dispatch_id"`
	IngestInput
}

type JobDispatchService struct {
	ingestion    *IngestionService
	catalog      CatalogReader
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewJobDispatchService(
	ingestion *IngestionService,
	catalog CatalogReader,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	logger *logging.Logger,
) *JobDispatchService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	return &JobDispatchService{
		ingestion:    ingestion,
		catalog:      catalog,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		logger:       logging.OrDefault(logger),
		now:          time.Now,
	}
}

// Dispatch runs an ingestion now (sync) or hands it to the job queue, one
// queued job per chunk so chunks of a large run can proceed independently.
func (s *JobDispatchService) Dispatch(ctx context.Context, input DispatchInput) (DispatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobDispatchService.Dispatch",
		attribute.String("mode", string(input.Mode)),
		attribute.Bool("all_players", input.AllPlayers),
	)
	defer span.End()

	mode := DispatchMode(strings.ToLower(strings.TrimSpace(string(input.Mode))))
	if mode == "" {
		mode = DispatchQueued
	}
	if mode != DispatchSync && mode != DispatchQueued {
		return DispatchResult{}, fmt.Errorf("%w: invalid dispatch mode %q", ErrInvalidInput, input.Mode)
	}

	if input.AllPlayers {
		if s.catalog == nil {
			return DispatchResult{}, fmt.Errorf("%w: catalog is not configured", ErrInvalidInput)
		}
		catalog, err := s.catalog.GetCatalog(ctx, input.Sport)
		if err != nil {
			return DispatchResult{}, fmt.Errorf("load player catalog: %w", err)
		}
		input.PlayerIDs = catalog.IDs()
	}

	normalized, err := s.ingestion.normalizeInput(input.IngestInput)
	if err != nil {
		return DispatchResult{}, err
	}

	if mode == DispatchSync {
		job := IngestJob{DispatchID: dispatchID(normalized), IngestInput: normalized}
		report, err := s.RunJob(ctx, job)
		result := DispatchResult{
			Mode:        mode,
			DispatchIDs: []string{job.DispatchID},
			Players:     len(normalized.PlayerIDs),
			Report:      &report,
		}
		return result, err
	}

	result := DispatchResult{Mode: mode, Players: len(normalized.PlayerIDs)}
	for start := 0; start < len(normalized.PlayerIDs); start += normalized.ChunkSize {
		end := min(start+normalized.ChunkSize, len(normalized.PlayerIDs))
		chunk := normalized
		chunk.PlayerIDs = normalized.PlayerIDs[start:end]

		job := IngestJob{DispatchID: dispatchID(chunk), IngestInput: chunk}
		if err := s.enqueue(ctx, job); err != nil {
			return result, err
		}
		result.DispatchIDs = append(result.DispatchIDs, job.DispatchID)
	}

	s.logger.InfoContext(ctx, "ingestion dispatched",
		"jobs", len(result.DispatchIDs),
		"players", result.Players,
		"sport", normalized.Sport,
		"season", normalized.Season,
	)
	return result, nil
}

// RunJob executes one ingestion and records its outcome in the dispatch ledger.
func (s *JobDispatchService) RunJob(ctx context.Context, job IngestJob) (IngestionReport, error) {
	if strings.TrimSpace(job.DispatchID) == "" {
		if normalized, err := s.ingestion.normalizeInput(job.IngestInput); err == nil {
			job.DispatchID = dispatchID(normalized)
		}
	}

	report, err := s.ingestion.Ingest(ctx, job.IngestInput)
	event := jobscheduler.DispatchEvent{
		DispatchID: job.DispatchID,
		JobName:    IngestJobName,
		JobPath:    IngestJobPath,
		Scope:      dispatchScope(job.IngestInput),
		Payload:    ingestPayload(job),
		Result:     reportSummary(report),
		OccurredAt: s.now().UTC(),
	}
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return report, err
	}

	event.Status = jobscheduler.StatusCompleted
	s.recordDispatchEvent(ctx, event)
	return report, nil
}

func (s *JobDispatchService) enqueue(ctx context.Context, job IngestJob) error {
	payload := ingestPayload(job)
	event := jobscheduler.DispatchEvent{
		DispatchID: job.DispatchID,
		JobName:    IngestJobName,
		JobPath:    IngestJobPath,
		Scope:      dispatchScope(job.IngestInput),
		Payload:    payload,
		OccurredAt: s.now().UTC(),
	}

	if err := s.queue.Enqueue(ctx, IngestJobPath, job, 0, job.DispatchID); err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return fmt.Errorf("enqueue %s dispatch=%s: %w", IngestJobName, job.DispatchID, err)
	}

	event.Status = jobscheduler.StatusSent
	s.recordDispatchEvent(ctx, event)
	return nil
}

func (s *JobDispatchService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

// GetDispatch returns the ledger entry for a dispatch id.
func (s *JobDispatchService) GetDispatch(ctx context.Context, id string) (jobscheduler.Dispatch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return jobscheduler.Dispatch{}, fmt.Errorf("%w: dispatch id is required", ErrInvalidInput)
	}
	if s.dispatchRepo == nil {
		return jobscheduler.Dispatch{}, fmt.Errorf("%w: dispatch %s", ErrNotFound, id)
	}
	item, ok, err := s.dispatchRepo.GetByID(ctx, id)
	if err != nil {
		return jobscheduler.Dispatch{}, fmt.Errorf("get dispatch %s: %w", id, err)
	}
	if !ok {
		return jobscheduler.Dispatch{}, fmt.Errorf("%w: dispatch %s", ErrNotFound, id)
	}
	return item, nil
}

// dispatchID is stable for identical normalized inputs, so a queue that
// deduplicates by id drops repeated dispatches of the same work.
func dispatchID(input IngestInput) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(input.Sport)
	_ = buf.WriteByte('|')
	_, _ = buf.WriteString(input.Season)
	_ = buf.WriteByte('|')
	_, _ = buf.WriteString(input.SeasonStage)
	_ = buf.WriteByte('|')
	_, _ = buf.WriteString(input.Grouping)
	_ = buf.WriteByte('|')
	_, _ = buf.WriteString(strconv.Itoa(input.ChunkSize))
	for _, id := range input.PlayerIDs {
		_ = buf.WriteByte('|')
		_, _ = buf.WriteString(id)
	}

	sum := sha256.Sum256(buf.B)
	return strings.Join([]string{
		"ingest",
		sanitizeDedupSegment(input.Sport),
		sanitizeDedupSegment(input.Season),
		sanitizeDedupSegment(input.SeasonStage),
		hex.EncodeToString(sum[:8]),
	}, "-")
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func dispatchScope(input IngestInput) string {
	return strings.Join([]string{input.Sport, input.Season, input.SeasonStage}, ":")
}

func ingestPayload(job IngestJob) map[string]any {
	return map[string]any{
		"dispatch_id":  job.DispatchID,
		"player_ids":   job.PlayerIDs,
		"season":       job.Season,
		"sport":        job.Sport,
		"season_stage": job.SeasonStage,
		"grouping":     job.Grouping,
		"chunk_size":   job.ChunkSize,
	}
}

func reportSummary(report IngestionReport) map[string]any {
	return map[string]any{
		"chunks_processed":    report.ChunksProcessed,
		"players_processed":   report.PlayersProcessed,
		"stats_created":       report.StatsCreated,
		"stats_updated":       report.StatsUpdated,
		"projections_created": report.ProjectionsCreated,
		"projections_updated": report.ProjectionsUpdated,
		"weeks_skipped":       report.WeeksSkipped,
		"errors":              len(report.Errors),
		"cancelled":           report.Cancelled,
		"duration_ms":         report.DurationMs,
	}
}
