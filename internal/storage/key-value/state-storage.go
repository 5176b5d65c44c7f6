package key_value

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

// StateStorage keeps application state strings in Redis under a shared prefix.
type StateStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewStateStorage(rdb *redis.Client, prefix string) *StateStorage {
	return &StateStorage{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (s *StateStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrStateKeyDoesNotExist
		}
		return "", fmt.Errorf("failed to get state %s: %w", key, err)
	}
	return value, nil
}

func (s *StateStorage) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state %s: %w", key, err)
	}
	return nil
}

func (s *StateStorage) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}
