package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/job-assistant/internal/jobs"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL = 7 * 24 * time.Hour
	cacheKeyPrefix  = "job-assistant:research:"
)

// Cache keeps research results between runs.
type Cache interface {
	Get(ctx context.Context, company string) (*jobs.CompanyResearch, bool, error)
	Set(ctx context.Context, r *jobs.CompanyResearch) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*jobs.CompanyResearch, bool, error) {
	return nil, false, nil
}

func (NopCache) Set(context.Context, *jobs.CompanyResearch) error { return nil }

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache stores research as JSON under a per-company key.
type RedisCache struct {
	kv  redisKV
	ttl time.Duration
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return newRedisCache(client, ttl)
}

func newRedisCache(kv redisKV, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{kv: kv, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, company string) (*jobs.CompanyResearch, bool, error) {
	data, err := c.kv.Get(ctx, cacheKey(company)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var r jobs.CompanyResearch
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached research: %w", err)
	}
	return &r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, r *jobs.CompanyResearch) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode research: %w", err)
	}
	if err := c.kv.Set(ctx, cacheKey(r.Company), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func cacheKey(company string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(company), " "))
}
