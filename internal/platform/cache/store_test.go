package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "history:table", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errUnexpectedValue
		}
		return "ok", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); !errors.Is(err, errUnexpectedValue) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil || v != "ok" {
		t.Fatalf("second GetOrLoad = %v, %v", v, err)
	}
}

func TestStore_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewStore(time.Minute)
	now := time.Date(2025, 8, 16, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(ctx, "fpl:picks:1:5", "a")
	store.SetTTL(ctx, "fpl:bootstrap", "b", time.Hour)
	store.SetTTL(ctx, "pinned", "c", 0)

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(ctx, "fpl:picks:1:5"); ok {
		t.Fatalf("expected picks entry to expire")
	}
	if _, ok := store.Get(ctx, "fpl:bootstrap"); !ok {
		t.Fatalf("expected bootstrap entry to survive")
	}

	if removed := store.DeletePrefix(ctx, "fpl:"); removed != 1 {
		t.Fatalf("DeletePrefix removed %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected only the pinned entry, got %d", store.Len())
	}
}

func TestMemoryBackend_CopiesPayloads(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	payload := []byte(`{"id":1}`)
	if err := backend.Set(ctx, "k", payload, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	payload[0] = 'x'

	got, ok, err := backend.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = ok:%v err:%v", ok, err)
	}
	if string(got) != `{"id":1}` {
		t.Fatalf("stored payload was mutated: %s", got)
	}

	_ = backend.Delete(ctx, "k")
	if _, ok, _ := backend.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestRedisBackend_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	backend, err := NewRedisBackend(ctx, RedisConfig{Addr: addr, KeyPrefix: "fpl-insight-test:"})
	if err != nil {
		t.Fatalf("NewRedisBackend: %v", err)
	}
	defer backend.Close()

	if _, ok, err := backend.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := backend.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := backend.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get = %q ok=%v err=%v", got, ok, err)
	}
	_ = backend.Delete(ctx, "k")
}

var errUnexpectedValue = errors.New("unexpected loaded value")
