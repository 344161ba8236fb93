package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"unireg/internal/ratelimit/models"
)

// RedisStore holds bans as keys with a TTL; expiry is Redis's job, so a
// banned address unbans itself without any sweeper.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IsBanned(ctx context.Context, address string) (bool, error) {
	err := s.client.Get(ctx, models.BanKey(address)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe ban for %s: %w", address, err)
	}
	return true, nil
}

func (s *RedisStore) Ban(ctx context.Context, address string, duration time.Duration) error {
	if err := s.client.Set(ctx, models.BanKey(address), "1", duration).Err(); err != nil {
		return fmt.Errorf("ban %s: %w", address, err)
	}
	return nil
}
