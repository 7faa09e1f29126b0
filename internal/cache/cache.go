// Package cache wraps the redis commands the service relies on: one-shot
// keys for deduplicating periodic work and the revoked token list.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/config"
)

// Connect opens a client and pings it.
func Connect(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	addr := cfg.Redis.Host + ":" + strconv.Itoa(cfg.Redis.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", addr))
	return rdb, nil
}

// Commands is the subset of *redis.Client in use.
type Commands interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

type Client struct {
	rdb    Commands
	prefix string
}

func New(rdb Commands, prefix string) *Client {
	return &Client{rdb: rdb, prefix: prefix}
}

// Claim reports true the first time key is seen within ttl.
func (c *Client) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.prefix+key, 1, ttl).Result()
}

const revokedPrefix = "token:revoked:"

// RevokeToken blocks a token id until it would have expired anyway.
func (c *Client) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, c.prefix+revokedPrefix+jti, 1, ttl).Err()
}

func (c *Client) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.prefix+revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
