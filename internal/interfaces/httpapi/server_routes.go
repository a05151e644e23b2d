package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/accounts/validate", handler.ValidateAccount)
	mux.HandleFunc("GET /v1/catalog/{sport}", handler.GetCatalogSummary)
	mux.HandleFunc("GET /v1/catalog/{sport}/players", handler.ResolvePlayers)
	mux.HandleFunc("GET /v1/players/{playerID}/stats", handler.ListPlayerStats)
	mux.HandleFunc("GET /v1/players/{playerID}/projections", handler.ListPlayerProjections)
	mux.HandleFunc("GET /v1/preferences/strategy", handler.GetStrategyPreferences)
	mux.HandleFunc("PUT /v1/preferences/strategy", handler.MergeStrategyPreferences)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	// Queue callback target; QStash forwards X-Internal-Job-Token.
	mux.Handle("POST /v1/internal/jobs/ingest", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunIngestJob)))
	mux.Handle("POST /v1/internal/ingestion/dispatch", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.DispatchIngestion)))
	mux.Handle("GET /v1/internal/ingestion/dispatches/{dispatchID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetDispatch)))
	mux.Handle("POST /v1/internal/catalog/{sport}/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshCatalog)))
}
