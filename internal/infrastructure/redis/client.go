package redis

import (
	"context"
	"fmt"
	"log"

	"github.com/go-member-api/internal/config"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client from config and pings it within the dial timeout.
func NewClient(cfg config.Redis) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Printf("connected to redis at %s (db %d)", cfg.Addr, cfg.DB)
	return client, nil
}
