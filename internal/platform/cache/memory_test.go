package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryBackend_ExpiresEntries(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	now := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }
	ctx := context.Background()

	if err := backend.Set(ctx, "strategy_preferences", []byte(`{"risk":"high"}`), 30*24*time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(29 * 24 * time.Hour)
	if _, ok, _ := backend.Get(ctx, "strategy_preferences"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	now = now.Add(48 * time.Hour)
	if _, ok, _ := backend.Get(ctx, "strategy_preferences"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestMemoryBackend_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	now := time.Now()
	backend.now = func() time.Time { return now }
	ctx := context.Background()

	_ = backend.Set(ctx, "k", []byte("v"), 0)
	now = now.Add(100 * 365 * 24 * time.Hour)
	raw, ok, err := backend.Get(ctx, "k")
	if err != nil || !ok || string(raw) != "v" {
		t.Fatalf("got raw=%q ok=%v err=%v", raw, ok, err)
	}
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	ctx := context.Background()
	value := []byte("abc")
	_ = backend.Set(ctx, "k", value, time.Minute)
	value[0] = 'z'

	raw, _, _ := backend.Get(ctx, "k")
	raw[1] = 'z'
	again, _, _ := backend.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value was mutated: %q", again)
	}
}

func TestMemoryBackend_Delete(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	ctx := context.Background()
	_ = backend.Set(ctx, "catalog:nfl", []byte("1"), time.Minute)
	_ = backend.Set(ctx, "other", []byte("3"), time.Minute)

	_ = backend.Delete(ctx, "catalog:nfl")
	if _, ok, _ := backend.Get(ctx, "catalog:nfl"); ok {
		t.Fatalf("expected delete")
	}
	if _, ok, _ := backend.Get(ctx, "other"); !ok {
		t.Fatalf("unrelated key was removed")
	}
	if _, _, err := backend.Get(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestJSONHelpers_RoundTripConcurrently(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = SetJSON(ctx, backend, "prefs", map[string]any{"risk": "high"}, time.Minute)
		}()
	}
	wg.Wait()

	var got map[string]any
	ok, err := GetJSON(ctx, backend, "prefs", &got)
	if err != nil || !ok {
		t.Fatalf("GetJSON ok=%v err=%v", ok, err)
	}
	if got["risk"] != "high" {
		t.Fatalf("unexpected value %v", got)
	}

	var missing map[string]any
	ok, err = GetJSON(ctx, backend, "absent", &missing)
	if ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}
