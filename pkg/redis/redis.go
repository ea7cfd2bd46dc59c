// Package redis wraps go-redis with retrying connect and a readiness
// probe. Redis is optional here: an empty connection URL means the
// caller should fall back to in-process storage.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings loaded from the environment.
// An empty ConnectionURL disables Redis entirely.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Enabled reports whether a connection URL was configured.
func (c Config) Enabled() bool { return c.ConnectionURL != "" }

var (
	// ErrInvalidConnectionURL indicates the URL could not be parsed.
	ErrInvalidConnectionURL = errors.New("redis: invalid connection url")

	// ErrNotReady indicates the server did not answer a ping within the
	// configured retry budget.
	ErrNotReady = errors.New("redis: server not ready")
)

// Connect dials the configured server, retrying up to RetryAttempts
// with RetryInterval between attempts, all bounded by ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidConnectionURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		} else {
			lastErr = err
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, errors.Join(ErrNotReady, lastErr)
}

// Healthcheck returns a readiness probe bound to the client.
func Healthcheck(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
