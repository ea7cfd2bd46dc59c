package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cognerax/sitekit/pkg/redis"
)

func TestConfigEnabled(t *testing.T) {
	t.Parallel()

	assert.False(t, redis.Config{}.Enabled())
	assert.True(t, redis.Config{ConnectionURL: "redis://localhost:6379/0"}.Enabled())
}

func TestConnectInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "not a url",
		RetryAttempts:  1,
		RetryInterval:  time.Millisecond,
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrInvalidConnectionURL)
}

func TestConnectUnreachable(t *testing.T) {
	t.Parallel()

	// Reserved TEST-NET address, nothing listens there.
	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://192.0.2.1:6379/0",
		RetryAttempts:  1,
		RetryInterval:  time.Millisecond,
		ConnectTimeout: 500 * time.Millisecond,
	})
	assert.ErrorIs(t, err, redis.ErrNotReady)
}
