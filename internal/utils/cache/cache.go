package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "frh:cache:"

type (
	// Cache stores JSON-encoded values. A miss is reported as (false, nil).
	Cache interface {
		Get(ctx context.Context, key string, dest interface{}) (bool, error)
		Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
		Delete(ctx context.Context, keys ...string) error
	}

	redisCache struct {
		client *redis.Client
	}

	noopCache struct{}
)

// ConnectRedis parses a redis:// URL and pings the server before returning.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Infof("connected to redis at %s", opt.Addr)
	return client, nil
}

// New returns a Redis-backed cache, or a cache that never hits when redisURL
// is empty or the server is unreachable.
func New(ctx context.Context, redisURL string) Cache {
	if redisURL == "" {
		return NewNoop()
	}
	client, err := ConnectRedis(ctx, redisURL)
	if err != nil {
		log.Warnw("redis unavailable, caching disabled", "error", err)
		return NewNoop()
	}
	return NewRedis(client)
}

func NewRedis(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func NewNoop() Cache {
	return noopCache{}
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, KeyPrefix+key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = KeyPrefix + k
	}
	return c.client.Del(ctx, prefixed...).Err()
}

func (noopCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (noopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (noopCache) Delete(context.Context, ...string) error { return nil }
