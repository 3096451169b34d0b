package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNil is returned by Get when the key does not exist
var ErrNil = redis.Nil

// Client wraps go-redis with per-operation timing logs and environment-scoped keys
type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// TTL defaults
const (
	TTLSession = 12 * time.Hour
	TTLDraft   = 24 * time.Hour
)

// NewClient parses redisURL, connects and pings
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// observe logs failures at info and successes at debug
func (c *Client) observe(op, key string, start time.Time, err error, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", time.Since(start)),
	}, extra...)

	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

// Get retrieves a value. A missing key returns ErrNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.observe("redis_get", key, start, err)
	return val, err
}

// Set stores a value with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.observe("redis_set", key, start, err, zap.Duration("ttl", ttl))
	return err
}

// SetXX overwrites a value only if the key already exists, keeping its TTL
func (c *Client) SetXX(ctx context.Context, key string, value interface{}) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SetArgs(ctx, key, value, redis.SetArgs{Mode: "XX", KeepTTL: true}).Result()
	if errors.Is(err, redis.Nil) {
		c.observe("redis_setxx", key, start, nil, zap.Bool("result", false))
		return false, nil
	}
	c.observe("redis_setxx", key, start, err, zap.Bool("result", err == nil))
	return err == nil && ok == "OK", err
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	first := ""
	if len(keys) > 0 {
		first = keys[0]
	}
	c.observe("redis_del", first, start, err, zap.Int("keys", len(keys)))
	return err
}

// Exists counts how many of keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Exists(ctx, keys...).Result()
	first := ""
	if len(keys) > 0 {
		first = keys[0]
	}
	c.observe("redis_exists", first, start, err, zap.Int64("result", n))
	return n, err
}

// Expire sets a TTL on a key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Expire(ctx, key, ttl).Err()
	c.observe("redis_expire", key, start, err)
	return err
}

// TTL returns the remaining lifetime of key
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	start := time.Now()
	d, err := c.rdb.TTL(ctx, key).Result()
	c.observe("redis_ttl", key, start, err)
	return d, err
}

// SAdd adds members to a set
func (c *Client) SAdd(ctx context.Context, key string, members ...interface{}) error {
	start := time.Now()
	err := c.rdb.SAdd(ctx, key, members...).Err()
	c.observe("redis_sadd", key, start, err, zap.Int("members", len(members)))
	return err
}

// SRem removes members from a set
func (c *Client) SRem(ctx context.Context, key string, members ...interface{}) error {
	start := time.Now()
	err := c.rdb.SRem(ctx, key, members...).Err()
	c.observe("redis_srem", key, start, err, zap.Int("members", len(members)))
	return err
}

// SMembers lists a set
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	m, err := c.rdb.SMembers(ctx, key).Result()
	c.observe("redis_smembers", key, start, err, zap.Int("members", len(m)))
	return m, err
}

// Health pings the server
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.observe("redis_ping", "", start, err)
	return err
}

// prefixForLog returns a safe prefix of a key to avoid logging tokens
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
