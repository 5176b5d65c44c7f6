package key_value

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestStateStorage(t *testing.T) {
	ctx := context.Background()
	rdb, mr := newTestRedis(t)
	storage := NewStateStorage(rdb, "ai-ide:")

	if _, err := storage.Get(ctx, "v1:theme"); !errors.Is(err, model.ErrStateKeyDoesNotExist) {
		t.Fatalf("Expected ErrStateKeyDoesNotExist, got %v", err)
	}
	if err := storage.Set(ctx, "v1:theme", "dark"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if got, _ := mr.Get("ai-ide:v1:theme"); got != "dark" {
		t.Errorf("Expected prefixed key in redis, got %q", got)
	}
	value, err := storage.Get(ctx, "v1:theme")
	if err != nil || value != "dark" {
		t.Errorf("Expected dark, got %q (%v)", value, err)
	}
	if err = storage.Delete(ctx, "v1:theme"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err = storage.Get(ctx, "v1:theme"); !errors.Is(err, model.ErrStateKeyDoesNotExist) {
		t.Errorf("Expected key to be gone, got %v", err)
	}
}

func TestSessionStorage(t *testing.T) {
	ctx := context.Background()
	rdb, _ := newTestRedis(t)
	storage := NewSessionStorage(rdb, "ai-ide:")

	sessions, err := storage.ListSessions(ctx)
	if err != nil || len(sessions) != 0 {
		t.Fatalf("Expected empty list, got %v (%v)", sessions, err)
	}

	first := model.NewChatSession()
	first.Messages = append(first.Messages, model.NewChatMessage(model.MessageRoleUser, "hi"))
	first.Files["index.html"] = "<p>"
	second := model.NewChatSession()
	second.Title = "Second"

	for _, s := range []model.ChatSession{first, second, first} {
		if err = storage.SaveSession(ctx, s); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}
	}

	sessions, err = storage.ListSessions(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Fatalf("Expected sessions in save order without duplicates, got %+v", sessions)
	}
	got := sessions[0]
	if len(got.Messages) != 1 || got.Messages[0].Content != "hi" || got.Messages[0].ID != first.Messages[0].ID {
		t.Errorf("Messages not round-tripped: %+v", got.Messages)
	}
	if got.Files["index.html"] != "<p>" {
		t.Errorf("Files not round-tripped: %+v", got.Files)
	}

	if err = storage.DeleteSession(ctx, first.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err = storage.DeleteSession(ctx, first.ID); !errors.Is(err, model.ErrSessionDoesNotExist) {
		t.Errorf("Expected ErrSessionDoesNotExist on second delete, got %v", err)
	}
	sessions, _ = storage.ListSessions(ctx)
	if len(sessions) != 1 || sessions[0].Title != "Second" {
		t.Errorf("Expected only the second session, got %+v", sessions)
	}
}
