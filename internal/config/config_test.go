package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-companion/internal/domain/playerstats"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		t.Fatalf("unexpected StorageDriver: %q", cfg.StorageDriver)
	}
	if cfg.CatalogTTL != 24*time.Hour {
		t.Fatalf("unexpected CatalogTTL: %s", cfg.CatalogTTL)
	}
	if cfg.SleeperAppTimeout != 10*time.Second || cfg.SleeperStatsTimeout != 15*time.Second {
		t.Fatalf("unexpected sleeper timeouts: app=%s stats=%s", cfg.SleeperAppTimeout, cfg.SleeperStatsTimeout)
	}
	if cfg.IngestChunkSize != 250 || cfg.IngestWorkers != 1 || cfg.IngestItemRetries != 1 {
		t.Fatalf("unexpected ingest defaults: chunk=%d workers=%d retries=%d", cfg.IngestChunkSize, cfg.IngestWorkers, cfg.IngestItemRetries)
	}
	if cfg.IngestEmptyWeekPolicy != playerstats.EmptyWeekSkip {
		t.Fatalf("unexpected IngestEmptyWeekPolicy: %q", cfg.IngestEmptyWeekPolicy)
	}
	if len(cfg.CatalogSports) != 1 || cfg.CatalogSports[0] != "nfl" {
		t.Fatalf("unexpected CatalogSports: %v", cfg.CatalogSports)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_IngestOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("INGEST_CHUNK_SIZE", "50")
	t.Setenv("INGEST_WORKERS", "4")
	t.Setenv("INGEST_EMPTY_WEEK_POLICY", "zero")
	t.Setenv("CATALOG_SPORTS", "NFL, nba")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.IngestChunkSize != 50 || cfg.IngestWorkers != 4 {
		t.Fatalf("unexpected ingest overrides: chunk=%d workers=%d", cfg.IngestChunkSize, cfg.IngestWorkers)
	}
	if cfg.IngestEmptyWeekPolicy != playerstats.EmptyWeekZero {
		t.Fatalf("unexpected IngestEmptyWeekPolicy: %q", cfg.IngestEmptyWeekPolicy)
	}
	if len(cfg.CatalogSports) != 2 || cfg.CatalogSports[0] != "nfl" || cfg.CatalogSports[1] != "nba" {
		t.Fatalf("unexpected CatalogSports: %v", cfg.CatalogSports)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"STORAGE_DRIVER":           "mysql",
		"INGEST_CHUNK_SIZE":        "0",
		"INGEST_WORKERS":           "-1",
		"INGEST_EMPTY_WEEK_POLICY": "drop",
		"SLEEPER_APP_TIMEOUT":      "0s",
		"CATALOG_REFRESH_CRON":     "every day",
		"CATALOG_TTL":              "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoad_QStashRequiresTokens(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("QSTASH_ENABLED", "true")
	t.Setenv("QSTASH_TOKEN", "qstash-token")
	t.Setenv("QSTASH_TARGET_BASE_URL", "https://companion.example.com")
	t.Setenv("INTERNAL_JOB_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when QSTASH_ENABLED=true without INTERNAL_JOB_TOKEN")
	}

	t.Setenv("INTERNAL_JOB_TOKEN", "job-token")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.QStashEnabled || cfg.QStashRetries != 3 {
		t.Fatalf("unexpected qstash config: enabled=%v retries=%d", cfg.QStashEnabled, cfg.QStashRetries)
	}
}
