package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-companion/internal/domain/account"
	"github.com/riskibarqy/fantasy-companion/internal/domain/player"
	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
	repocache "github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-companion/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/fantasy-companion/internal/platform/cache"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	"github.com/riskibarqy/fantasy-companion/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJobToken = "job-secret"

type stubCatalogSource struct{}

func (stubCatalogSource) FetchCatalog(_ context.Context, sport string) (player.Catalog, error) {
	return player.Catalog{
		Sport: sport,
		Players: map[string]player.Identity{
			"4046": {PlayerID: "4046", FullName: "Patrick Mahomes", Position: "QB", Team: "KC"},
		},
		FetchedAt: time.Now(),
	}, nil
}

type stubDirectory struct{}

func (stubDirectory) LookupUser(_ context.Context, username string) (account.UpstreamUser, error) {
	if username == "known_user" {
		return account.UpstreamUser{UserID: "7001", Username: username}, nil
	}
	return account.UpstreamUser{}, errors.New("upstream status 404")
}

type stubStatsSource struct{}

func (stubStatsSource) FetchStats(_ context.Context, q playerstats.FetchQuery) (map[string]any, error) {
	if q.PlayerID != "100" {
		return map[string]any{}, nil
	}
	return map[string]any{"1": map[string]any{"pass_yd": 251.0}}, nil
}

func (stubStatsSource) FetchProjections(context.Context, playerstats.FetchQuery) (map[string]any, error) {
	return map[string]any{}, nil
}

type testServer struct {
	router http.Handler
	repo   *memory.PlayerStatsRepository
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	logger := logging.NewNop()
	repo := memory.NewPlayerStatsRepository()
	catalog := usecase.NewCatalogService(stubCatalogSource{}, nil, usecase.CatalogConfig{}, logger)
	ingestion := usecase.NewIngestionService(stubStatsSource{}, repo, usecase.IngestionConfig{}, logger)
	dispatch := usecase.NewJobDispatchService(ingestion, catalog, nil, memory.NewJobDispatchRepository(), logger)

	handler := NewHandler(Services{
		Accounts:    usecase.NewAccountValidationService(stubDirectory{}, logger),
		Catalog:     catalog,
		PlayerStats: usecase.NewPlayerStatsService(repo),
		Preferences: usecase.NewPreferenceService(repocache.NewPreferenceStore(basecache.NewMemoryBackend()), logger),
		Dispatch:    dispatch,
		Readiness:   repo.Ping,
	}, logger)

	return testServer{
		router: NewRouter(handler, logger, RouterConfig{InternalJobToken: testJobToken, SwaggerEnabled: true}),
		repo:   repo,
	}
}

func (s testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var envelope map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestValidateAccount(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodPost, "/v1/accounts/validate", `{"username":"known_user"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "7001", data["user_id"])

	for _, payload := range []string{`{"username":"nonexistent_user"}`, `{"username":"  "}`} {
		rec, body = srv.do(t, http.MethodPost, "/v1/accounts/validate", payload, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, usecase.UsernameNotFoundMessage, errObj["message"])
		assert.NotContains(t, rec.Body.String(), "404")
	}
}

func TestResolvePlayers_OneEntryPerUniqueID(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec, body := srv.do(t, http.MethodGet, "/v1/catalog/nfl/players?ids=4046,9999,4046", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := body["data"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Patrick Mahomes", first["name"])
	assert.Equal(t, true, first["found"])
	assert.Equal(t, false, items[1].(map[string]any)["found"])
}

func TestStrategyPreferences_MergeThenGet(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec, body := srv.do(t, http.MethodGet, "/v1/preferences/strategy", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{}, body["data"])

	rec, _ = srv.do(t, http.MethodPut, "/v1/preferences/strategy", `{"preferences":{"risk":"high","zero_rb":true}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = srv.do(t, http.MethodPut, "/v1/preferences/strategy", `{"preferences":{"risk":"low","zero_rb":null}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, map[string]any{"risk": "low", "zero_rb": true}, body["data"])

	rec, _ = srv.do(t, http.MethodPut, "/v1/preferences/strategy", `{"unknown":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInternalRoutesRequireJobToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec, _ := srv.do(t, http.MethodPost, "/v1/internal/jobs/ingest", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = srv.do(t, http.MethodPost, "/v1/internal/jobs/ingest", `{}`, map[string]string{internalJobTokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunIngestJob_WritesRecordsAndServesThem(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	auth := map[string]string{internalJobTokenHeader: testJobToken}

	rec, body := srv.do(t, http.MethodPost, "/v1/internal/jobs/ingest",
		`{"dispatch_id":"ingest-nfl-2024-regular-x","player_ids":["100","200"],"season":"2024","sport":"nfl","season_stage":"regular","chunk_size":250}`, auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := body["data"].(map[string]any)
	assert.EqualValues(t, 1, report["stats_created"])
	assert.Equal(t, 1, srv.repo.Count(playerstats.KindStat))

	rec, body = srv.do(t, http.MethodGet, "/v1/players/100/stats?sport=nfl&season=2024", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	record := items[0].(map[string]any)
	assert.EqualValues(t, 1, record["week"])
	assert.EqualValues(t, 251, record["metrics"].(map[string]any)["pass_yd"])

	rec, body = srv.do(t, http.MethodGet, "/v1/internal/ingestion/dispatches/ingest-nfl-2024-regular-x", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["data"].(map[string]any)["status"])
}

func TestRunIngestJob_StorageDownIs503(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.repo.SetUnavailable(true)

	rec, _ := srv.do(t, http.MethodPost, "/v1/internal/jobs/ingest",
		`{"player_ids":["100"],"season":"2024","sport":"nfl"}`, map[string]string{internalJobTokenHeader: testJobToken})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = srv.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDispatchIngestion_Validation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	auth := map[string]string{internalJobTokenHeader: testJobToken}

	rec, _ := srv.do(t, http.MethodPost, "/v1/internal/ingestion/dispatch", `{"season":"24","sport":"nfl","player_ids":["1"]}`, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := srv.do(t, http.MethodPost, "/v1/internal/ingestion/dispatch", `{"season":"2024","sport":"nfl","player_ids":["1","2"],"mode":"queued"}`, auth)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Len(t, body["data"].(map[string]any)["dispatch_ids"], 1)
}

func TestRequestIDIsEchoedOrIssued(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec, _ := srv.do(t, http.MethodGet, "/healthz", "", map[string]string{requestIDHeader: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))

	rec, _ = srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestOpenAPIIsServed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec, _ := srv.do(t, http.MethodGet, "/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/internal/jobs/ingest")
}
