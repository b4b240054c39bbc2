package domain

import (
	"context"
	"time"
)

// ProcessedMarkets remembers markets the oracle has already resolved so later
// cycles skip them cheaply. It is an optimization only; losing the set is
// safe because settlement itself is idempotence-checked.
type ProcessedMarkets interface {
	Contains(ctx context.Context, marketID int64) (bool, error)
	Add(ctx context.Context, marketID int64) error
	Len(ctx context.Context) (int64, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
