package cache

import (
	"context"
	"time"
)

// Cache stores serialized values under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
