package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultRedisKey holds the whole serialized mapping, mirroring the
// single-key layout of the storage format.
const defaultRedisKey = "sitekit:throttle"

// RedisStorage persists the throttle mapping in Redis so counters
// survive restarts and are shared across replicas. Writes are plain SET
// with a TTL slightly beyond the eviction horizon; concurrent replicas
// race read-modify-write with last write winning, which the throttle's
// soft-deterrent contract accepts.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOption configures RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisKey overrides the storage key.
func WithRedisKey(key string) RedisOption {
	return func(s *RedisStorage) {
		if key != "" {
			s.key = key
		}
	}
}

// NewRedisStorage creates a Redis-backed Storage.
func NewRedisStorage(client *redis.Client, opts ...RedisOption) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &RedisStorage{
		client: client,
		key:    defaultRedisKey,
		ttl:    2 * evictionAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *RedisStorage) Save(ctx context.Context, data []byte) error {
	return s.client.Set(ctx, s.key, data, s.ttl).Err()
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
