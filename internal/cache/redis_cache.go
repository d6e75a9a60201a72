package cache

import (
	"context"
	"encoding/json"
	"errors"
	"growdoctor/internal/model"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisCache creates a DiagnosisCache backed by redis. Expiry is delegated
// to redis key TTLs, so EvictExpired has nothing to do.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) DiagnosisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCache{
		client: client,
		ttl:    ttl,
		prefix: "growdoctor:diagnosis:",
		logger: logger,
	}
}

func (c *redisCache) key(key string) string {
	return c.prefix + key
}

func (c *redisCache) Get(ctx context.Context, key string) (*model.Diagnosis, error) {
	data, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry model.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// unreadable entries are treated as absent and overwritten on the next put
		c.logger.Warn("cache.decode_failed", "backend", "redis", "key", key, "err", err)
		return nil, nil
	}
	if !entry.Complete() {
		c.logger.Warn("cache.decode_failed", "backend", "redis", "key", key, "err", "incomplete entry")
		return nil, nil
	}
	return &entry.Diagnosis, nil
}

func (c *redisCache) Put(ctx context.Context, key string, d model.Diagnosis) error {
	data, err := json.Marshal(model.CacheEntry{
		Key:       key,
		CreatedAt: time.Now().UTC(),
		Diagnosis: d,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

func (c *redisCache) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
