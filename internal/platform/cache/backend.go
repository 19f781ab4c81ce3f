package cache

import (
	"context"
	"time"
)

// Backend stores raw payloads with a per-key ttl. Get reports a miss with ok=false and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type MemoryBackend struct {
	store *Store
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{store: NewStore(0)}
}

func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := b.store.Get(ctx, key)
	if !ok {
		return nil, false, nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), raw...), true, nil
}

func (b *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b.store.SetTTL(ctx, key, append([]byte(nil), value...), ttl)
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.store.Delete(ctx, key)
	return nil
}
