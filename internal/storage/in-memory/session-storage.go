package in_memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

// SessionStorage keeps chat sessions in insertion order.
type SessionStorage struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]model.ChatSession
	order    []uuid.UUID
}

func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		sessions: make(map[uuid.UUID]model.ChatSession),
	}
}

func (s *SessionStorage) ListSessions(_ context.Context) ([]model.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]model.ChatSession, 0, len(s.order))
	for _, id := range s.order {
		sessions = append(sessions, s.sessions[id].Clone())
	}
	return sessions, nil
}

func (s *SessionStorage) GetSession(_ context.Context, sessionID uuid.UUID) (model.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return model.ChatSession{}, model.ErrSessionDoesNotExist
	}
	return session.Clone(), nil
}

func (s *SessionStorage) SaveSession(_ context.Context, session model.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		s.order = append(s.order, session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStorage) DeleteSession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return model.ErrSessionDoesNotExist
	}
	delete(s.sessions, sessionID)
	s.order = slices.DeleteFunc(s.order, func(id uuid.UUID) bool { return id == sessionID })
	return nil
}
