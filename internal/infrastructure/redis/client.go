package redis

import (
	"context"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/redis/go-redis/v9"
)

var ErrKeyNotFound = stderrors.New("key not found")

// RedisClient defines the store operations the token core needs. Every
// call carries a bounded timeout; callers decide whether a timeout means
// fail-closed (guards) or fail-loud (issuance).
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
	DelPrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// Client is the go-redis implementation of RedisClient.
type Client struct {
	client  *redis.Client
	timeout time.Duration
}

func NewClient(addr string, timeout time.Duration) *Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		slog.Error("failed to connect to Redis", "addr", addr, "error", err)
		panic(err)
	}

	slog.Info("connected to Redis", "addr", addr)
	return &Client{client: client, timeout: timeout}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.client.SetNX(ctx, key, value, expiration).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.client.Del(ctx, keys...).Err()
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ScanPrefix enumerates keys under prefix using SCAN. Not a point-in-time
// snapshot: keys written concurrently may or may not be returned.
func (c *Client) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *Client) DelPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.ScanPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
