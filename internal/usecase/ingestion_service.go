package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/riskibarqy/fantasy-companion/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultIngestChunkSize    = 250
	defaultIngestRetryBackoff = 500 * time.Millisecond
)

// Stages at which a single item can fail without failing the job.
const (
	ItemStageFetch     = "fetch"
	ItemStageReconcile = "reconcile"
	ItemStageUpsert    = "upsert"
)

type IngestionConfig struct {
	ChunkSize       int
	Workers         int
	ItemRetries     int
	RetryBackoff    time.Duration
	EmptyWeekPolicy playerstats.EmptyWeekPolicy
}

type IngestInput struct {
	PlayerIDs   []string `json:"player_ids"`
	Season      string   `json:"season"`
	Sport       string   `json:"sport"`
	SeasonStage string   `json:"season_stage"`
	Grouping    string   `json:"grouping,omitempty"`
	ChunkSize   int      `json:"chunk_size,omitempty"`
}

// ItemError is one isolated failure. Week is 0 when the whole fetch failed.
type ItemError struct {
	PlayerID string           `json:"player_id"`
	Week     int              `json:"week"`
	Kind     playerstats.Kind `json:"kind"`
	Stage    string           `json:"stage"`
	Message  string           `json:"message"`
}

type IngestionReport struct {
	ChunksTotal        int         `json:"chunks_total"`
	ChunksProcessed    int         `json:"chunks_processed"`
	PlayersProcessed   int         `json:"players_processed"`
	StatsCreated       int         `json:"stats_created"`
	StatsUpdated       int         `json:"stats_updated"`
	ProjectionsCreated int         `json:"projections_created"`
	ProjectionsUpdated int         `json:"projections_updated"`
	WeeksSkipped       int         `json:"weeks_skipped"`
	Errors             []ItemError `json:"errors"`
	Cancelled          bool        `json:"cancelled"`
	DurationMs         int64       `json:"duration_ms"`
}

// RecordsWritten counts stat and projection rows created or updated so far.
func (r IngestionReport) RecordsWritten() int {
	return r.StatsCreated + r.StatsUpdated + r.ProjectionsCreated + r.ProjectionsUpdated
}

// IngestionService pulls stats and projections for a list of players and
// upserts them in sequential chunks.
type IngestionService struct {
	source playerstats.Source
	repo   playerstats.Repository
	cfg    IngestionConfig
	logger *logging.Logger
	now    func() time.Time
}

func NewIngestionService(source playerstats.Source, repo playerstats.Repository, cfg IngestionConfig, logger *logging.Logger) *IngestionService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultIngestChunkSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ItemRetries < 0 {
		cfg.ItemRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultIngestRetryBackoff
	}
	if cfg.EmptyWeekPolicy == "" {
		cfg.EmptyWeekPolicy = playerstats.EmptyWeekSkip
	}

	return &IngestionService{
		source: source,
		repo:   repo,
		cfg:    cfg,
		logger: logging.OrDefault(logger),
		now:    time.Now,
	}
}

// Ingest runs the job. Item failures are collected in the report; only
// storage outages and cancellation end the job early. Cancellation is
// honoured between chunks, never inside one.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (IngestionReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.Ingest",
		attribute.String("sport", input.Sport),
		attribute.String("season", input.Season),
		attribute.Int("players", len(input.PlayerIDs)),
	)
	defer span.End()

	input, err := s.normalizeInput(input)
	if err != nil {
		return IngestionReport{}, err
	}

	started := s.now()
	report := IngestionReport{
		ChunksTotal: (len(input.PlayerIDs) + input.ChunkSize - 1) / input.ChunkSize,
		Errors:      []ItemError{},
	}
	defer func() {
		report.DurationMs = s.now().Sub(started).Milliseconds()
	}()

	if err := s.repo.Ping(ctx); err != nil {
		return report, fmt.Errorf("%w: ping player stats storage: %w", ErrDependencyUnavailable, err)
	}

	for start := 0; start < len(input.PlayerIDs); start += input.ChunkSize {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			s.logger.WarnContext(ctx, "ingestion cancelled between chunks",
				"chunks_processed", report.ChunksProcessed,
				"chunks_total", report.ChunksTotal,
			)
			return report, err
		}

		end := min(start+input.ChunkSize, len(input.PlayerIDs))
		chunk := input.PlayerIDs[start:end]

		result, err := s.processChunk(context.WithoutCancel(ctx), input, chunk)
		report.merge(result)
		report.ChunksProcessed++
		if err != nil {
			s.logger.ErrorContext(ctx, "ingestion aborted: storage unavailable",
				"chunk", report.ChunksProcessed,
				"error", err,
			)
			return report, fmt.Errorf("%w: %w", ErrDependencyUnavailable, err)
		}

		s.logger.InfoContext(ctx, "ingestion chunk done",
			"chunk", report.ChunksProcessed,
			"chunks_total", report.ChunksTotal,
			"players", len(chunk),
			"records_written", report.RecordsWritten(),
			"errors", len(result.Errors),
		)
	}

	return report, nil
}

func (s *IngestionService) normalizeInput(input IngestInput) (IngestInput, error) {
	input.Season = strings.TrimSpace(input.Season)
	input.Sport = player.NormalizeSport(input.Sport)
	input.SeasonStage = strings.ToLower(strings.TrimSpace(input.SeasonStage))
	input.Grouping = strings.ToLower(strings.TrimSpace(input.Grouping))
	input.PlayerIDs = player.NormalizeIDs(input.PlayerIDs)

	if input.SeasonStage == "" {
		input.SeasonStage = playerstats.StageRegular
	}
	if input.Grouping == "" {
		input.Grouping = playerstats.GroupingWeek
	}
	if input.ChunkSize <= 0 {
		input.ChunkSize = s.cfg.ChunkSize
	}

	switch {
	case len(input.PlayerIDs) == 0:
		return input, fmt.Errorf("%w: at least one player id is required", ErrInvalidInput)
	case input.Season == "":
		return input, fmt.Errorf("%w: season is required", ErrInvalidInput)
	case !playerstats.SupportedSport(input.Sport):
		return input, fmt.Errorf("%w: unsupported sport %q, want one of %s", ErrInvalidInput, input.Sport, strings.Join(playerstats.SupportedSports(), ", "))
	case !playerstats.ValidStage(input.SeasonStage):
		return input, fmt.Errorf("%w: invalid season stage %q", ErrInvalidInput, input.SeasonStage)
	case !playerstats.ValidGrouping(input.Grouping):
		return input, fmt.Errorf("%w: invalid grouping %q", ErrInvalidInput, input.Grouping)
	}
	if _, err := strconv.Atoi(input.Season); err != nil {
		return input, fmt.Errorf("%w: season must be a year, got %q", ErrInvalidInput, input.Season)
	}

	return input, nil
}

// chunkResult is the per-chunk slice of the report.
type chunkResult struct {
	players            int
	statsCreated       int
	statsUpdated       int
	projectionsCreated int
	projectionsUpdated int
	weeksSkipped       int
	Errors             []ItemError
}

func (r *IngestionReport) merge(c chunkResult) {
	r.PlayersProcessed += c.players
	r.StatsCreated += c.statsCreated
	r.StatsUpdated += c.statsUpdated
	r.ProjectionsCreated += c.projectionsCreated
	r.ProjectionsUpdated += c.projectionsUpdated
	r.WeeksSkipped += c.weeksSkipped
	r.Errors = append(r.Errors, c.Errors...)
}

func (c *chunkResult) add(other chunkResult) {
	c.players += other.players
	c.statsCreated += other.statsCreated
	c.statsUpdated += other.statsUpdated
	c.projectionsCreated += other.projectionsCreated
	c.projectionsUpdated += other.projectionsUpdated
	c.weeksSkipped += other.weeksSkipped
	c.Errors = append(c.Errors, other.Errors...)
}

func (s *IngestionService) processChunk(ctx context.Context, input IngestInput, chunk []string) (chunkResult, error) {
	if s.cfg.Workers <= 1 || len(chunk) <= 1 {
		var total chunkResult
		for _, playerID := range chunk {
			result, err := s.ingestPlayer(ctx, input, playerID)
			total.add(result)
			if err != nil {
				return total, err
			}
		}
		return total, nil
	}

	pool, err := ants.NewPool(min(s.cfg.Workers, len(chunk)))
	if err != nil {
		return chunkResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		total   chunkResult
		fatal   error
		aborted atomic.Bool
		workers sync.WaitGroup
	)
	for _, playerID := range chunk {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			if aborted.Load() {
				return
			}

			result, err := s.ingestPlayer(ctx, input, playerID)
			mu.Lock()
			defer mu.Unlock()
			total.add(result)
			if err != nil && fatal == nil {
				fatal = err
				aborted.Store(true)
			}
		}); err != nil {
			workers.Done()
			mu.Lock()
			total.Errors = append(total.Errors, ItemError{PlayerID: playerID, Stage: ItemStageFetch, Message: "submit to worker pool: " + err.Error()})
			mu.Unlock()
		}
	}
	workers.Wait()

	return total, fatal
}

// ingestPlayer fetches, reconciles and upserts both kinds for one player.
// The returned error is non-nil only for storage outages.
func (s *IngestionService) ingestPlayer(ctx context.Context, input IngestInput, playerID string) (chunkResult, error) {
	result := chunkResult{players: 1}
	query := playerstats.FetchQuery{
		PlayerID:    playerID,
		Sport:       input.Sport,
		Season:      input.Season,
		SeasonStage: input.SeasonStage,
		Grouping:    input.Grouping,
	}

	for _, kind := range []playerstats.Kind{playerstats.KindStat, playerstats.KindProjection} {
		raw, err := s.fetchWithRetry(ctx, kind, query)
		if err != nil {
			s.logger.WarnContext(ctx, "fetch player payload failed",
				"player_id", playerID,
				"kind", kind,
				"error", err,
			)
			result.Errors = append(result.Errors, ItemError{
				PlayerID: playerID,
				Kind:     kind,
				Stage:    ItemStageFetch,
				Message:  err.Error(),
			})
			continue
		}

		reconciled := playerstats.Reconcile(raw, playerstats.ReconcileInput{
			PlayerID:        playerID,
			Sport:           input.Sport,
			Season:          input.Season,
			SeasonStage:     input.SeasonStage,
			Kind:            kind,
			Grouping:        input.Grouping,
			EmptyWeekPolicy: s.cfg.EmptyWeekPolicy,
			Now:             s.now().UTC(),
		})
		result.weeksSkipped += len(reconciled.SkippedWeeks)
		for _, recErr := range reconciled.Errors {
			s.logger.WarnContext(ctx, "skip unreconcilable entry", "kind", kind, "error", recErr)
			week, _ := strconv.Atoi(recErr.Entry)
			result.Errors = append(result.Errors, ItemError{
				PlayerID: playerID,
				Week:     week,
				Kind:     kind,
				Stage:    ItemStageReconcile,
				Message:  recErr.Error(),
			})
		}

		for _, record := range reconciled.Records {
			outcome, err := playerstats.Upsert(ctx, s.repo, record)
			if err != nil {
				if errors.Is(err, playerstats.ErrStorageUnavailable) {
					return result, fmt.Errorf("upsert %s %s: %w", kind, record.Key, err)
				}
				result.Errors = append(result.Errors, ItemError{
					PlayerID: playerID,
					Week:     record.Week,
					Kind:     kind,
					Stage:    ItemStageUpsert,
					Message:  err.Error(),
				})
				continue
			}
			result.count(kind, outcome)
		}
	}

	return result, nil
}

func (c *chunkResult) count(kind playerstats.Kind, outcome playerstats.UpsertOutcome) {
	created := outcome == playerstats.OutcomeCreated
	switch {
	case kind == playerstats.KindProjection && created:
		c.projectionsCreated++
	case kind == playerstats.KindProjection:
		c.projectionsUpdated++
	case created:
		c.statsCreated++
	default:
		c.statsUpdated++
	}
}

func (s *IngestionService) fetchWithRetry(ctx context.Context, kind playerstats.Kind, query playerstats.FetchQuery) (map[string]any, error) {
	fetch := s.source.FetchStats
	if kind == playerstats.KindProjection {
		fetch = s.source.FetchProjections
	}

	attempts := s.cfg.ItemRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := fetch(ctx, query)
		if err == nil {
			if raw == nil {
				raw = map[string]any{}
			}
			return raw, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == attempts {
			break
		}
		if sleepErr := resilience.Sleep(ctx, resilience.LinearBackoff(s.cfg.RetryBackoff, attempt)); sleepErr != nil {
			break
		}
	}
	return nil, lastErr
}
