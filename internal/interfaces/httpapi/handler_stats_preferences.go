package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
)

type playerRecordDTO struct {
	PlayerID     string             `json:"player_id"`
	Sport        string             `json:"sport"`
	Season       string             `json:"season"`
	SeasonStage  string             `json:"season_stage"`
	Week         int                `json:"week"`
	StatType     string             `json:"stat_type"`
	Metrics      map[string]float64 `json:"metrics"`
	UpdatedAtUTC string             `json:"updated_at_utc"`
}

type mergeStrategyRequest struct {
	Preferences map[string]any `json:"preferences" validate:"required"`
}

func (h *Handler) ListPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayerStats")
	defer span.End()

	h.listPlayerRecords(w, r.WithContext(ctx), playerstats.KindStat)
}

func (h *Handler) ListPlayerProjections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayerProjections")
	defer span.End()

	h.listPlayerRecords(w, r.WithContext(ctx), playerstats.KindProjection)
}

func (h *Handler) listPlayerRecords(w http.ResponseWriter, r *http.Request, kind playerstats.Kind) {
	ctx := r.Context()
	q := r.URL.Query()
	query := playerstats.Query{
		PlayerID:    r.PathValue("playerID"),
		Sport:       q.Get("sport"),
		Season:      q.Get("season"),
		SeasonStage: q.Get("stage"),
	}

	records, err := h.playerStatsService.ListByPlayer(ctx, kind, query)
	if err != nil {
		h.logger.WarnContext(ctx, "list player records failed", "kind", kind, "player_id", query.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerRecordDTO, 0, len(records))
	for _, record := range records {
		items = append(items, playerRecordToDTO(record))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetStrategyPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStrategyPreferences")
	defer span.End()

	strategy, err := h.preferenceService.GetStrategy(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get strategy preferences failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, strategy)
}

// MergeStrategyPreferences applies {"preferences": {...}} last-write-wins.
func (h *Handler) MergeStrategyPreferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MergeStrategyPreferences")
	defer span.End()

	var req mergeStrategyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.Preferences == nil {
		writeError(ctx, w, fmt.Errorf("%w: preferences object is required", usecase.ErrInvalidInput))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	strategy, err := h.preferenceService.MergeStrategy(ctx, req.Preferences)
	if err != nil {
		h.logger.WarnContext(ctx, "merge strategy preferences failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, strategy)
}

func playerRecordToDTO(record playerstats.Record) playerRecordDTO {
	metrics := record.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	return playerRecordDTO{
		PlayerID:     record.PlayerID,
		Sport:        record.Sport,
		Season:       record.Season,
		SeasonStage:  record.SeasonStage,
		Week:         record.Week,
		StatType:     string(record.StatType),
		Metrics:      metrics,
		UpdatedAtUTC: record.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
