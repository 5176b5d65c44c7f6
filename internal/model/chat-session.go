package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultSessionTitle = "New chat"

type ChatSession struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Messages     []ChatMessage     `json:"messages"`
	Files        map[string]string `json:"files"`
	SystemPrompt string            `json:"system_prompt,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func NewChatSession() ChatSession {
	return ChatSession{
		ID:        uuid.New(),
		Title:     DefaultSessionTitle,
		Messages:  make([]ChatMessage, 0),
		Files:     make(map[string]string),
		UpdatedAt: time.Now(),
	}
}

// Clone returns a deep copy so callers can read a session while a stream mutates it.
func (s ChatSession) Clone() ChatSession {
	clone := s
	clone.Messages = append(make([]ChatMessage, 0, len(s.Messages)), s.Messages...)
	clone.Files = make(map[string]string, len(s.Files))
	for name, content := range s.Files {
		clone.Files[name] = content
	}
	return clone
}

type QueuedPrompt struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}
