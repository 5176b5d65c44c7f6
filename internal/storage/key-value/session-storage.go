package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

const (
	sessionIndexKey = "v1:sessions"
	sessionKeyFmt   = "v1:session:%s"
)

var ErrSessionIndexDoesNotExist = errors.New("session index does not exist")

type messageInternal struct {
	ID        string            `json:"id"`
	Role      model.MessageRole `json:"role"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
}

type sessionInternal struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Messages     []messageInternal `json:"messages"`
	Files        map[string]string `json:"files"`
	SystemPrompt string            `json:"system_prompt"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type sessionIndex struct {
	Sessions []string `json:"sessions"`
}

// SessionStorage stores each session under its own key plus an ordered index
// of session ids.
type SessionStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewSessionStorage(rdb *redis.Client, prefix string) *SessionStorage {
	return &SessionStorage{
		rdb:    rdb,
		prefix: prefix,
	}
}

func (s *SessionStorage) ListSessions(ctx context.Context) ([]model.ChatSession, error) {
	index, err := s.getIndex(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionIndexDoesNotExist) {
			return []model.ChatSession{}, nil
		}
		return nil, fmt.Errorf("failed to get session index: %w", err)
	}
	sessions := make([]model.ChatSession, 0, len(index.Sessions))
	for _, sessionIDStr := range index.Sessions {
		sessionID, err := uuid.Parse(sessionIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session id %s: %w", sessionIDStr, err)
		}
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			if errors.Is(err, model.ErrSessionDoesNotExist) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStorage) GetSession(ctx context.Context, sessionID uuid.UUID) (model.ChatSession, error) {
	sessionInt, err := s.getSessionInt(ctx, sessionID)
	if err != nil {
		return model.ChatSession{}, err
	}

	messages := make([]model.ChatMessage, 0, len(sessionInt.Messages))
	for _, msg := range sessionInt.Messages {
		messageID, err := uuid.Parse(msg.ID)
		if err != nil {
			return model.ChatSession{}, fmt.Errorf("failed to parse message id %s: %w", msg.ID, err)
		}
		messages = append(
			messages, model.ChatMessage{
				ID:        messageID,
				Role:      msg.Role,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			},
		)
	}
	files := sessionInt.Files
	if files == nil {
		files = make(map[string]string)
	}

	return model.ChatSession{
		ID:           sessionID,
		Title:        sessionInt.Title,
		Messages:     messages,
		Files:        files,
		SystemPrompt: sessionInt.SystemPrompt,
		UpdatedAt:    sessionInt.UpdatedAt,
	}, nil
}

func (s *SessionStorage) SaveSession(ctx context.Context, session model.ChatSession) error {
	messages := make([]messageInternal, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messages = append(
			messages, messageInternal{
				ID:        msg.ID.String(),
				Role:      msg.Role,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			},
		)
	}
	sessionInt := sessionInternal{
		ID:           session.ID.String(),
		Title:        session.Title,
		Messages:     messages,
		Files:        session.Files,
		SystemPrompt: session.SystemPrompt,
		UpdatedAt:    session.UpdatedAt,
	}
	if err := s.setSessionInt(ctx, session.ID, sessionInt); err != nil {
		return fmt.Errorf("failed to set session %s: %w", session.ID, err)
	}

	index, err := s.getIndex(ctx)
	if err != nil {
		if !errors.Is(err, ErrSessionIndexDoesNotExist) {
			return fmt.Errorf("failed to get session index: %w", err)
		}
		index = sessionIndex{Sessions: make([]string, 0)}
	}
	if slices.Contains(index.Sessions, sessionInt.ID) {
		return nil
	}
	index.Sessions = append(index.Sessions, sessionInt.ID)
	if err = s.setIndex(ctx, index); err != nil {
		return fmt.Errorf("failed to set session index: %w", err)
	}
	return nil
}

func (s *SessionStorage) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	deleted, err := s.rdb.Del(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if deleted == 0 {
		return model.ErrSessionDoesNotExist
	}

	index, err := s.getIndex(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionIndexDoesNotExist) {
			return nil
		}
		return fmt.Errorf("failed to get session index: %w", err)
	}
	idStr := sessionID.String()
	index.Sessions = slices.DeleteFunc(index.Sessions, func(id string) bool { return id == idStr })
	if err = s.setIndex(ctx, index); err != nil {
		return fmt.Errorf("failed to set session index: %w", err)
	}
	return nil
}

func (s *SessionStorage) getSessionInt(ctx context.Context, sessionID uuid.UUID) (sessionInternal, error) {
	sessionRaw, err := s.rdb.Get(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sessionInternal{}, model.ErrSessionDoesNotExist
		}
		return sessionInternal{}, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	var sessionInt sessionInternal
	if err = json.Unmarshal([]byte(sessionRaw), &sessionInt); err != nil {
		return sessionInternal{}, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return sessionInt, nil
}

func (s *SessionStorage) setSessionInt(ctx context.Context, sessionID uuid.UUID, sessionInt sessionInternal) error {
	sessionJSON, err := json.Marshal(sessionInt)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err = s.rdb.Set(ctx, s.sessionKey(sessionID), sessionJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SessionStorage) getIndex(ctx context.Context) (sessionIndex, error) {
	indexRaw, err := s.rdb.Get(ctx, s.prefix+sessionIndexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sessionIndex{}, ErrSessionIndexDoesNotExist
		}
		return sessionIndex{}, fmt.Errorf("failed to get session index: %w", err)
	}
	var index sessionIndex
	if err = json.Unmarshal([]byte(indexRaw), &index); err != nil {
		return sessionIndex{}, fmt.Errorf("failed to unmarshal session index: %w", err)
	}
	return index, nil
}

func (s *SessionStorage) setIndex(ctx context.Context, index sessionIndex) error {
	indexJSON, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal session index: %w", err)
	}
	if err = s.rdb.Set(ctx, s.prefix+sessionIndexKey, indexJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session index: %w", err)
	}
	return nil
}

func (s *SessionStorage) sessionKey(sessionID uuid.UUID) string {
	return s.prefix + fmt.Sprintf(sessionKeyFmt, sessionID.String())
}
