package cache

import (
	"context"
	"time"

	"slotswap-api/core/config"
	"slotswap-api/core/constants"
	"slotswap-api/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error

	AddToTokenBlacklist(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)

	IncrementLoginAttempt(ctx context.Context, identifier string) (int64, error)
	IsLoginBlocked(ctx context.Context, identifier string) (bool, error)
	ResetLoginAttempts(ctx context.Context, identifier string) error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, key, ttl).Err()
}

func (c *redisCache) AddToTokenBlacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, constants.RedisKeyTokenBlacklist+tokenID, "1", ttl).Err()
}

func (c *redisCache) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, constants.RedisKeyTokenBlacklist+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) IncrementLoginAttempt(ctx context.Context, identifier string) (int64, error) {
	key := constants.RedisKeyLoginAttempt + identifier
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		// First failure starts the block window.
		_ = c.client.Expire(ctx, key, constants.BlockDuration).Err()
	}
	return n, nil
}

func (c *redisCache) IsLoginBlocked(ctx context.Context, identifier string) (bool, error) {
	val, err := c.client.Get(ctx, constants.RedisKeyLoginAttempt+identifier).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val >= constants.MaxLoginAttempts, nil
}

func (c *redisCache) ResetLoginAttempts(ctx context.Context, identifier string) error {
	return c.client.Del(ctx, constants.RedisKeyLoginAttempt+identifier).Err()
}
