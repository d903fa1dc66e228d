package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"examboard/internal/platform/config"
)

// Client wraps the go-redis client used for ledger snapshots. Every key the
// console writes goes through Key so deployments sharing a Redis stay apart.
type Client struct {
	*redis.Client
	prefix string
}

// New connects and pings. It returns nil, nil when no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return Wrap(client, cfg.KeyPrefix), nil
}

// Wrap adapts an existing go-redis client, e.g. one owned by a test container.
func Wrap(client *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = "examboard"
	}
	return &Client{Client: client, prefix: prefix}
}

// Key joins parts under the client's prefix: prefix:part1:part2.
func (c *Client) Key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

