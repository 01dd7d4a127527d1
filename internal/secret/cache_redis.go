package secret

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "checkrun:secret:"

// RedisStore shares cached secrets across instances.
type RedisStore struct {
	client redis.UniversalClient
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, name string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+name, value, ttl).Err()
}
