// Package cache provides the cache-aside layer for query results. Backed by
// Valkey when configured, otherwise a no-op that keeps every lookup a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/icalmcp/internal/logging"
)

// TTLs per result class. Event queries move with the clock, feed info only
// changes on refresh.
const (
	EventsTTL = 5 * time.Minute
	InfoTTL   = 30 * time.Minute
)

// Cache stores serialized query results under derived keys. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close()
}

// Recorder receives cache operation outcomes. Implemented by
// instrumentation.Metrics; a nil recorder disables recording.
type Recorder interface {
	RecordCacheOp(ctx context.Context, op, outcome string)
}

// Key derives a cache key from a tool prefix, the registry generation and
// the call arguments. The generation makes keys from before a feed mutation
// unreachable, so no explicit invalidation pass is needed.
func Key(prefix string, generation uint64, args any) string {
	payload, err := json.Marshal(struct {
		Generation uint64 `json:"g"`
		Args       any    `json:"a"`
	}{generation, args})
	if err != nil {
		// Arguments are plain structs of strings and numbers; this only
		// trips on programmer error.
		payload = []byte(fmt.Sprintf("%d:%+v", generation, args))
	}
	sum := sha256.Sum256(payload)
	return prefix + ":" + hex.EncodeToString(sum[:8])
}

// Noop is the disabled cache: every Get misses, Set and Delete do nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) Close() {}

// Fetch loads a value through the cache: a hit is decoded and returned, a
// miss runs load and stores the result. Cache failures are logged and
// degrade to a miss; load errors are returned as-is and never cached.
func Fetch[T any](ctx context.Context, c Cache, logger *slog.Logger, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var zero T
	if c == nil {
		c = Noop{}
	}

	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", slog.String("key", key), logging.Err(err))
	} else if ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		logger.Warn("discarding undecodable cache entry", slog.String("key", key))
	}

	value, err := load()
	if err != nil {
		return zero, err
	}

	raw, err = json.Marshal(value)
	if err != nil {
		logger.Warn("cache encode failed", slog.String("key", key), logging.Err(err))
		return value, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("cache write failed", slog.String("key", key), logging.Err(err))
	}
	return value, nil
}
