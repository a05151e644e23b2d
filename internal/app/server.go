package app

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-companion/internal/config"
	"github.com/riskibarqy/fantasy-companion/internal/interfaces/httpapi"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
)

func NewHTTPServer(cfg config.Config, c *Container, logger *logging.Logger) (*http.Server, error) {
	handler := httpapi.NewHandler(httpapi.Services{
		Accounts:    c.Accounts,
		Catalog:     c.Catalog,
		PlayerStats: c.PlayerStats,
		Preferences: c.Preferences,
		Dispatch:    c.Dispatch,
		Readiness:   c.StatsRepo.Ping,
	}, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
