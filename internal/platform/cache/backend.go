package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

var ErrInvalidKey = errors.New("cache key is required")

// Backend stores opaque values with a per-entry expiry. A ttl <= 0 means the
// entry never expires.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value stored under key into out. It reports false on a miss.
func GetJSON(ctx context.Context, backend Backend, key string, out any) (bool, error) {
	raw, ok, err := backend.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode cache value %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, backend Backend, key string, value any, ttl time.Duration) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	return backend.Set(ctx, key, raw, ttl)
}
