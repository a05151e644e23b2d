package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
)

type dispatchIngestionRequest struct {
	PlayerIDs   []string `json:"player_ids" validate:"omitempty,dive,required,max=32"`
	AllPlayers  bool     `json:"all_players"`
	Season      string   `json:"season" validate:"required,numeric,len=4"`
	Sport       string   `json:"sport" validate:"required,max=16"`
	SeasonStage string   `json:"season_stage" validate:"omitempty,oneof=regular pre post"`
	Grouping    string   `json:"grouping" validate:"omitempty,oneof=week season"`
	ChunkSize   int      `json:"chunk_size" validate:"gte=0,lte=5000"`
	Mode        string   `json:"mode" validate:"omitempty,oneof=sync queued"`
}

type dispatchDTO struct {
	DispatchID     string         `json:"dispatch_id"`
	JobName        string         `json:"job_name"`
	Scope          string         `json:"scope"`
	Status         string         `json:"status"`
	Payload        map[string]any `json:"payload,omitempty"`
	Result         map[string]any `json:"result,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	SentAtUTC      string         `json:"sent_at_utc,omitempty"`
	CompletedAtUTC string         `json:"completed_at_utc,omitempty"`
	FailedAtUTC    string         `json:"failed_at_utc,omitempty"`
}

// RunIngestJob is the queue callback. It runs one chunk job synchronously;
// a non-2xx reply makes QStash redeliver it.
func (h *Handler) RunIngestJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunIngestJob")
	defer span.End()

	var job usecase.IngestJob
	if err := decodeJSON(w, r, &job); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.dispatchService.RunJob(ctx, job)
	if err != nil {
		h.logger.WarnContext(ctx, "run ingest job failed",
			"dispatch_id", job.DispatchID,
			"players", len(job.PlayerIDs),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) DispatchIngestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DispatchIngestion")
	defer span.End()

	var req dispatchIngestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.dispatchService.Dispatch(ctx, usecase.DispatchInput{
		IngestInput: usecase.IngestInput{
			PlayerIDs:   req.PlayerIDs,
			Season:      req.Season,
			Sport:       req.Sport,
			SeasonStage: req.SeasonStage,
			Grouping:    req.Grouping,
			ChunkSize:   req.ChunkSize,
		},
		Mode:       usecase.DispatchMode(req.Mode),
		AllPlayers: req.AllPlayers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "dispatch ingestion failed", "sport", req.Sport, "season", req.Season, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusAccepted
	if result.Mode == usecase.DispatchSync {
		status = http.StatusOK
	}
	writeSuccess(ctx, w, status, result)
}

func (h *Handler) GetDispatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDispatch")
	defer span.End()

	dispatchID := r.PathValue("dispatchID")
	item, err := h.dispatchService.GetDispatch(ctx, dispatchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dispatchToDTO(item))
}

func dispatchToDTO(item jobscheduler.Dispatch) dispatchDTO {
	return dispatchDTO{
		DispatchID:     item.DispatchID,
		JobName:        item.JobName,
		Scope:          item.Scope,
		Status:         string(item.Status),
		Payload:        item.Payload,
		Result:         item.Result,
		LastError:      item.LastError,
		SentAtUTC:      formatOptionalTime(item.SentAt),
		CompletedAtUTC: formatOptionalTime(item.CompletedAt),
		FailedAtUTC:    formatOptionalTime(item.FailedAt),
	}
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
