package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
)

type validateAccountRequest struct {
	Username string `json:"username" validate:"max=64"`
}

type accountDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type catalogSummaryDTO struct {
	Sport        string `json:"sport"`
	Players      int    `json:"players"`
	FetchedAtUTC string `json:"fetched_at_utc"`
}

func (h *Handler) ValidateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidateAccount")
	defer span.End()

	var req validateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	user, err := h.accountService.Validate(ctx, req.Username)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, accountDTO{UserID: user.UserID, Username: user.Username})
}

func (h *Handler) GetCatalogSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCatalogSummary")
	defer span.End()

	sport := r.PathValue("sport")
	catalog, err := h.catalogService.GetCatalog(ctx, sport)
	if err != nil {
		h.logger.WarnContext(ctx, "get catalog failed", "sport", sport, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, catalogToSummaryDTO(catalog))
}

// ResolvePlayers answers GET /v1/catalog/{sport}/players?ids=a,b with one
// entry per unique id, in request order.
func (h *Handler) ResolvePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolvePlayers")
	defer span.End()

	sport := r.PathValue("sport")
	ids := player.NormalizeIDs(splitCSV(r.URL.Query().Get("ids")))

	resolved, err := h.catalogService.Resolve(ctx, ids, sport)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve players failed", "sport", sport, "ids", len(ids), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]player.Resolved, 0, len(resolved))
	for _, playerID := range ids {
		if item, ok := resolved[playerID]; ok {
			items = append(items, item)
		}
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshCatalog")
	defer span.End()

	sport := r.PathValue("sport")
	catalog, err := h.catalogService.Refresh(ctx, sport)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh catalog failed", "sport", sport, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, catalogToSummaryDTO(catalog))
}

func catalogToSummaryDTO(catalog player.Catalog) catalogSummaryDTO {
	return catalogSummaryDTO{
		Sport:        catalog.Sport,
		Players:      catalog.Len(),
		FetchedAtUTC: catalog.FetchedAt.UTC().Format(time.RFC3339),
	}
}
