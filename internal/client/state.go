package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

const (
	KeyTheme         = "v1:theme"
	KeyAPIKey        = "v1:api_key"
	KeyModel         = "v1:model"
	KeyCustomModel   = "v1:custom_model"
	KeyModelProvider = "v1:model_provider"
	KeySystemPrompt  = "v1:system_prompt"
	KeyActiveSession = "v1:active_session"

	DefaultTheme = "dark"
	DefaultModel = "openai/gpt-4o-mini"
)

type StateStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type SessionStorage interface {
	ListSessions(ctx context.Context) ([]model.ChatSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (model.ChatSession, error)
	SaveSession(ctx context.Context, session model.ChatSession) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

type Preferences struct {
	Theme         string
	APIKey        string
	Model         string
	CustomModel   string
	ModelProvider model.ModelProvider
	SystemPrompt  string
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         DefaultTheme,
		Model:         DefaultModel,
		ModelProvider: model.ModelProviderAuto,
	}
}

// Settings resolves the chat settings; a custom model overrides the selected one.
func (p Preferences) Settings() Settings {
	modelID := p.Model
	if custom := strings.TrimSpace(p.CustomModel); custom != "" {
		modelID = custom
	}
	return Settings{
		Model:         modelID,
		ModelProvider: p.ModelProvider,
		APIKey:        p.APIKey,
		SystemPrompt:  p.SystemPrompt,
	}
}

func (p Preferences) values() map[string]string {
	return map[string]string{
		KeyTheme:         p.Theme,
		KeyAPIKey:        p.APIKey,
		KeyModel:         p.Model,
		KeyCustomModel:   p.CustomModel,
		KeyModelProvider: string(p.ModelProvider),
		KeySystemPrompt:  p.SystemPrompt,
	}
}

// AppState is loaded once at startup and written through on every change.
// At least one chat session always exists.
type AppState struct {
	states   StateStorage
	sessions SessionStorage

	mu       sync.Mutex
	prefs    Preferences
	activeID uuid.UUID
}

func NewAppState(states StateStorage, sessions SessionStorage) *AppState {
	return &AppState{
		states:   states,
		sessions: sessions,
		prefs:    DefaultPreferences(),
	}
}

func (a *AppState) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	prefs := DefaultPreferences()
	fields := map[string]*string{
		KeyTheme:        &prefs.Theme,
		KeyAPIKey:       &prefs.APIKey,
		KeyModel:        &prefs.Model,
		KeyCustomModel:  &prefs.CustomModel,
		KeySystemPrompt: &prefs.SystemPrompt,
	}
	for key, field := range fields {
		value, ok, err := a.get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			*field = value
		}
	}
	provider, ok, err := a.get(ctx, KeyModelProvider)
	if err != nil {
		return err
	}
	if ok {
		prefs.ModelProvider = model.ParseModelProvider(provider)
	}
	a.prefs = prefs

	sessions, err := a.sessions.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		session := model.NewChatSession()
		if err := a.sessions.SaveSession(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		sessions = append(sessions, session)
	}

	active := sessions[0].ID
	if stored, ok, err := a.get(ctx, KeyActiveSession); err != nil {
		return err
	} else if ok {
		if id, err := uuid.Parse(stored); err == nil && containsSession(sessions, id) {
			active = id
		}
	}
	return a.setActiveLocked(ctx, active)
}

func (a *AppState) Preferences() Preferences {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prefs
}

// SetPreferences saves the fields that changed. Empty values are deleted.
func (a *AppState) SetPreferences(ctx context.Context, prefs Preferences) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.prefs.values()
	for key, value := range prefs.values() {
		if current[key] == value {
			continue
		}
		var err error
		if value == "" {
			err = a.states.Delete(ctx, key)
		} else {
			err = a.states.Set(ctx, key, value)
		}
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	a.prefs = prefs
	return nil
}

func (a *AppState) Sessions(ctx context.Context) ([]model.ChatSession, error) {
	return a.sessions.ListSessions(ctx)
}

func (a *AppState) ActiveSession(ctx context.Context) (model.ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions.GetSession(ctx, a.activeID)
}

func (a *AppState) SetActiveSession(ctx context.Context, sessionID uuid.UUID) (model.ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, err := a.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return model.ChatSession{}, err
	}
	if err := a.setActiveLocked(ctx, sessionID); err != nil {
		return model.ChatSession{}, err
	}
	return session, nil
}

// NewSession creates an empty session and makes it the active one.
func (a *AppState) NewSession(ctx context.Context) (model.ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session := model.NewChatSession()
	if err := a.sessions.SaveSession(ctx, session); err != nil {
		return model.ChatSession{}, fmt.Errorf("failed to save session: %w", err)
	}
	if err := a.setActiveLocked(ctx, session.ID); err != nil {
		return model.ChatSession{}, err
	}
	return session, nil
}

func (a *AppState) SaveSession(ctx context.Context, session model.ChatSession) error {
	return a.sessions.SaveSession(ctx, session)
}

// DeleteSession removes a session and returns the active one afterwards.
// Deleting the last session replaces it with a fresh one.
func (a *AppState) DeleteSession(ctx context.Context, sessionID uuid.UUID) (model.ChatSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.sessions.DeleteSession(ctx, sessionID); err != nil {
		return model.ChatSession{}, err
	}
	sessions, err := a.sessions.ListSessions(ctx)
	if err != nil {
		return model.ChatSession{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		session := model.NewChatSession()
		if err := a.sessions.SaveSession(ctx, session); err != nil {
			return model.ChatSession{}, fmt.Errorf("failed to save session: %w", err)
		}
		sessions = append(sessions, session)
	}

	active := sessions[0]
	for _, session := range sessions {
		if session.ID == a.activeID {
			active = session
			break
		}
	}
	if err := a.setActiveLocked(ctx, active.ID); err != nil {
		return model.ChatSession{}, err
	}
	return active, nil
}

func (a *AppState) setActiveLocked(ctx context.Context, sessionID uuid.UUID) error {
	if err := a.states.Set(ctx, KeyActiveSession, sessionID.String()); err != nil {
		return fmt.Errorf("failed to save active session: %w", err)
	}
	a.activeID = sessionID
	return nil
}

func (a *AppState) get(ctx context.Context, key string) (string, bool, error) {
	value, err := a.states.Get(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrStateKeyDoesNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

func containsSession(sessions []model.ChatSession, id uuid.UUID) bool {
	for _, session := range sessions {
		if session.ID == id {
			return true
		}
	}
	return false
}
