package transport

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"herald/internal/config"
)

// NewClient connects to the configured Redis instance and verifies the
// connection with a ping.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Transport.Addr,
		Password: cfg.Transport.Password,
		DB:       cfg.Transport.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Transport.Addr, err)
	}
	return client, nil
}
