package client

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	in_memory "github.com/iamvkosarev/ai-ide-gateway/internal/storage/in-memory"
	key_value "github.com/iamvkosarev/ai-ide-gateway/internal/storage/key-value"
)

func TestAppStateLoadDefaults(t *testing.T) {
	ctx := context.Background()
	states := in_memory.NewStateStorage()
	state := NewAppState(states, in_memory.NewSessionStorage())

	if err := state.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if state.Preferences() != DefaultPreferences() {
		t.Errorf("Expected defaults, got %+v", state.Preferences())
	}
	sessions, err := state.Sessions(ctx)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("Expected one fresh session, got %d (%v)", len(sessions), err)
	}
	active, err := state.ActiveSession(ctx)
	if err != nil || active.ID != sessions[0].ID {
		t.Errorf("Expected the fresh session active, got %v (%v)", active.ID, err)
	}
	if stored, _ := states.Get(ctx, KeyActiveSession); stored != sessions[0].ID.String() {
		t.Errorf("Expected active session persisted, got %q", stored)
	}
}

func TestAppStatePersistsAcrossLoads(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	states := key_value.NewStateStorage(rdb, "test:")
	sessions := key_value.NewSessionStorage(rdb, "test:")

	first := NewAppState(states, sessions)
	if err := first.Load(ctx); err != nil {
		t.Fatal(err)
	}
	prefs := first.Preferences()
	prefs.APIKey = "sk-or-saved"
	prefs.CustomModel = "anthropic/claude-3.5-sonnet"
	prefs.ModelProvider = model.ModelProviderOpenRouter
	prefs.Theme = "light"
	if err := first.SetPreferences(ctx, prefs); err != nil {
		t.Fatal(err)
	}
	second, err := first.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if got := mr.Exists("test:" + KeyAPIKey); !got {
		t.Error("Expected versioned key in redis")
	}

	reloaded := NewAppState(states, sessions)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if reloaded.Preferences() != prefs {
		t.Errorf("Expected %+v, got %+v", prefs, reloaded.Preferences())
	}
	active, err := reloaded.ActiveSession(ctx)
	if err != nil || active.ID != second.ID {
		t.Errorf("Expected active session restored, got %v (%v)", active.ID, err)
	}
	settings := reloaded.Preferences().Settings()
	if settings.Model != "anthropic/claude-3.5-sonnet" || settings.APIKey != "sk-or-saved" {
		t.Errorf("Unexpected settings %+v", settings)
	}
}

func TestAppStateClearsEmptyPreferences(t *testing.T) {
	ctx := context.Background()
	states := in_memory.NewStateStorage()
	state := NewAppState(states, in_memory.NewSessionStorage())
	if err := state.Load(ctx); err != nil {
		t.Fatal(err)
	}

	prefs := state.Preferences()
	prefs.APIKey = "sk-or-x"
	if err := state.SetPreferences(ctx, prefs); err != nil {
		t.Fatal(err)
	}
	prefs.APIKey = ""
	if err := state.SetPreferences(ctx, prefs); err != nil {
		t.Fatal(err)
	}

	if _, err := states.Get(ctx, KeyAPIKey); !errors.Is(err, model.ErrStateKeyDoesNotExist) {
		t.Errorf("Expected key deleted, got %v", err)
	}
}

func TestAppStateDeleteSession(t *testing.T) {
	ctx := context.Background()
	state := NewAppState(in_memory.NewStateStorage(), in_memory.NewSessionStorage())
	if err := state.Load(ctx); err != nil {
		t.Fatal(err)
	}
	original, _ := state.ActiveSession(ctx)
	second, err := state.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	active, err := state.DeleteSession(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if active.ID != original.ID {
		t.Errorf("Expected fallback to the remaining session, got %v", active.ID)
	}

	active, err = state.DeleteSession(ctx, original.ID)
	if err != nil {
		t.Fatal(err)
	}
	sessions, _ := state.Sessions(ctx)
	if len(sessions) != 1 || sessions[0].ID != active.ID || active.ID == original.ID {
		t.Errorf("Expected a fresh session after deleting the last one, got %+v", sessions)
	}
}

func TestAppStateSetActiveUnknownSession(t *testing.T) {
	ctx := context.Background()
	state := NewAppState(in_memory.NewStateStorage(), in_memory.NewSessionStorage())
	if err := state.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := state.SetActiveSession(ctx, model.NewChatSession().ID); !errors.Is(err, model.ErrSessionDoesNotExist) {
		t.Errorf("Expected ErrSessionDoesNotExist, got %v", err)
	}
}
