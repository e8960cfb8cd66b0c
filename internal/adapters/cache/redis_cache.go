package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long an unreachable generation lingers in redis.
const DefaultTTL = 30 * time.Second

// RedisOptions configures the redis connection and key namespace.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisSearchCache keeps search pages in redis, namespaced by a generation counter.
type RedisSearchCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ SearchCache = (*RedisSearchCache)(nil)

// NewRedisSearchCache connects to redis and verifies the connection.
// PRE: opts.Address is non-empty
// POST: Returns a ready cache or an error if redis does not answer PING within 5s
func NewRedisSearchCache(opts RedisOptions) (*RedisSearchCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return newRedisSearchCache(client, opts), nil
}

func newRedisSearchCache(client *redis.Client, opts RedisOptions) *RedisSearchCache {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "gymroster:search"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSearchCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisSearchCache) generationKey() string {
	return c.prefix + ":generation"
}

// BuildKey renders the full redis key for key under generation gen.
func (c *RedisSearchCache) BuildKey(gen int64, key Key) string {
	return fmt.Sprintf("%s:gen:%d:%s", c.prefix, gen, key)
}

// Generation returns the current namespace generation, 0 before the first invalidation.
func (c *RedisSearchCache) Generation(ctx context.Context) (int64, error) {
	n, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return n, nil
}

// Get returns the cached page, or ErrCacheMiss.
func (c *RedisSearchCache) Get(ctx context.Context, gen int64, key Key) ([]byte, error) {
	data, err := c.client.Get(ctx, c.BuildKey(gen, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return data, nil
}

// Set stores a page under generation gen with the configured TTL.
func (c *RedisSearchCache) Set(ctx context.Context, gen int64, key Key, data []byte) error {
	if err := c.client.Set(ctx, c.BuildKey(gen, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

// Invalidate moves to a new generation; every earlier entry becomes unreachable and expires by TTL.
func (c *RedisSearchCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// Close releases the redis connection pool.
func (c *RedisSearchCache) Close() error {
	return c.client.Close()
}
