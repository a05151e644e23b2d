package app

import (
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-companion/internal/config"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex  = regexp.MustCompile(`\s+`)
	queryLineCommentRegex = regexp.MustCompile(`--[^\n]*`)
)

// formatDBQueryForTrace flattens a statement onto one line, drops line
// comments and caps its length.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(queryLineCommentRegex.ReplaceAllString(query, ""))
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}

// dbTraceAttributes tags every database span with the owning service.
func dbTraceAttributes(cfg config.Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("service.name", cfg.ServiceName)}
	if cfg.AppEnv != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.AppEnv))
	}
	return attrs
}
