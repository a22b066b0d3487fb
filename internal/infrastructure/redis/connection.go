// Package redis provides the Redis client and the shared access token store built on it.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/pkg/logger"
)

// NewClient creates a standalone Redis client from cfg and verifies connectivity.
func NewClient(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address not configured")
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// Pool settings
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Error(pingCtx, "Redis ping failed", err, logger.Fields{"addr": cfg.Address})
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info(ctx, "Redis connection established", logger.Fields{
		"addr":      cfg.Address,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})
	return client, nil
}
