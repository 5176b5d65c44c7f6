package in_memory

import (
	"context"
	"sync"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

type StateStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewStateStorage() *StateStorage {
	return &StateStorage{
		values: make(map[string]string),
	}
}

func (s *StateStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", model.ErrStateKeyDoesNotExist
	}
	return value, nil
}

func (s *StateStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *StateStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
