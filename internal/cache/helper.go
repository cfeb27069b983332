package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"linkboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache-aside layer over Redis. A nil *Cache, or one without a
// client, is valid and behaves as an always-missing cache.
type Cache struct {
	client *redis.Client
}

// New wraps client. client may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Client returns the underlying Redis client, or nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c.Client() != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// generationTTL bounds how long an invalidation fences out slower readers.
const generationTTL = time.Minute

var errStaleFetch = errors.New("cache: key invalidated during fetch")

func generationKey(key string) string {
	return "gen:" + key
}

// generation returns the invalidation counter of key; 0 when never invalidated or unreadable.
func (c *Cache) generation(ctx context.Context, key string) int64 {
	gen, _ := c.client.Get(ctx, generationKey(key)).Int64()
	return gen
}

// storeIfCurrent writes v under key unless key was invalidated since gen was read.
// This keeps a fetch that raced a write from caching the pre-write snapshot.
func (c *Cache) storeIfCurrent(ctx context.Context, key string, gen int64, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	genKey := generationKey(key)
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFetch
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, genKey)
}

// CacheAside tries Redis first, on miss it calls fetch (which should populate dest),
// then stores the result in Redis with ttl. Redis failures degrade to a miss.
func (c *Cache) CacheAside(ctx context.Context, kind, key string, dest any, ttl time.Duration, fetch func() error) error {
	if !c.Enabled() {
		return fetch()
	}

	spanCtx, span := observability.TraceRedisOperation(ctx, "get")
	found, err := c.GetJSON(spanCtx, key, dest)
	observability.EndSpan(span, err)
	if err == nil && found {
		observability.CacheLookups.WithLabelValues(kind, "hit").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues(kind, "miss").Inc()

	gen := c.generation(ctx, key)
	if err := fetch(); err != nil {
		return err
	}

	// Best-effort
	_ = c.storeIfCurrent(ctx, key, gen, dest, ttl)
	return nil
}

// Invalidate removes keys from the cache and bumps their generation so that
// in-flight fetches do not write them back. Errors are ignored.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, keys...)
	for _, key := range keys {
		pipe.Incr(ctx, generationKey(key))
		pipe.Expire(ctx, generationKey(key), generationTTL)
	}
	_, _ = pipe.Exec(ctx)
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
