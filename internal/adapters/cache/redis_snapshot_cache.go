package cache

import (
	"context"
	"errors"
	"fmt"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis-backed SnapshotCache. Each key holds one JSON envelope.
// A version mismatch deletes the stale entry and reports a miss.
type RedisSnapshotCache struct {
	Client *redis.Client
	Prefix string
	// Expiry bounds how long Redis keeps an entry; zero keeps it until cleared.
	Expiry time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, prefix string, expiry time.Duration) *RedisSnapshotCache {
	if prefix == "" {
		prefix = "pamekids:cache:"
	}
	return &RedisSnapshotCache{Client: client, Prefix: prefix, Expiry: expiry}
}

func (c *RedisSnapshotCache) key(k string) string { return c.Prefix + k }

func (c *RedisSnapshotCache) Read(ctx context.Context, key, version string) (_ ports.Snapshot, _ bool, err error) {
	defer obs.Time(ctx, "redis.snapshot.Read")(&err)

	if c.Client == nil {
		return ports.Snapshot{}, false, errors.New("redis snapshot cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.Snapshot{}, false, errors.New("redis snapshot cache: key must not be empty")
	}

	b, err := c.Client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.Snapshot{}, false, nil
	}
	if err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("read snapshot %q: %w", key, err)
	}

	snap, ok, err := decodeSnapshot(b, version)
	if err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("read snapshot %q: %w", key, err)
	}
	if !ok {
		if err := c.Client.Del(ctx, c.key(key)).Err(); err != nil {
			return ports.Snapshot{}, false, fmt.Errorf("read snapshot %q: drop stale version: %w", key, err)
		}
		return ports.Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (c *RedisSnapshotCache) Write(ctx context.Context, key, version string, snap ports.Snapshot) (err error) {
	defer obs.Time(ctx, "redis.snapshot.Write")(&err)

	if c.Client == nil {
		return errors.New("redis snapshot cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("redis snapshot cache: key must not be empty")
	}

	b, err := encodeSnapshot(version, snap)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	if err := c.Client.Set(ctx, c.key(key), b, c.Expiry).Err(); err != nil {
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	return nil
}

func (c *RedisSnapshotCache) Clear(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "redis.snapshot.Clear")(&err)

	if c.Client == nil {
		return errors.New("redis snapshot cache: client is nil")
	}
	if err := c.Client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("clear snapshot %q: %w", key, err)
	}
	return nil
}
