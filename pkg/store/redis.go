// Package store maintains the live connection pool to the shared Redis
// store. The limiter invokes its atomic script through the client exposed
// here; per-operation timeouts come from the client configuration, so no
// call blocks indefinitely.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connector wraps a pooled Redis client.
type Connector struct {
	client *redis.Client
}

// New creates a Redis connector and verifies the store is reachable.
func New(opts ...Option) (*Connector, error) {
	cfg := &Config{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Connector{client: client}, nil
}

// Client returns the underlying pooled client.
func (c *Connector) Client() redis.UniversalClient {
	return c.client
}

// Ping checks store liveness.
func (c *Connector) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *Connector) Close() error {
	return c.client.Close()
}
