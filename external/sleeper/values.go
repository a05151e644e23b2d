package sleeper

import (
	"strconv"
	"strings"
)

// getString reads key as a trimmed string. Numeric ids are formatted without
// a fractional part.
func getString(src map[string]any, key string) string {
	switch v := src[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
