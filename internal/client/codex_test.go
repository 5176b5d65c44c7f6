package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

type fakeCodexAPI struct {
	mu          sync.Mutex
	starts      int
	start       StartResult
	statuses    []model.CodexStatus
	polls       int
	disconnects int
}

func (f *fakeCodexAPI) CodexStart(context.Context) (StartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.start, nil
}

func (f *fakeCodexAPI) CodexStatus(context.Context) (model.CodexStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.statuses) == 0 {
		return model.CodexStatus{Message: "Awaiting device verification."}, nil
	}
	status := f.statuses[0]
	f.statuses = f.statuses[1:]
	return status, nil
}

func (f *fakeCodexAPI) CodexDisconnect(context.Context) (model.DisconnectResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return model.DisconnectResult{OK: true, Message: "Disconnected"}, nil
}

func TestCodexConnectorCoolsDownAfterRateLimit(t *testing.T) {
	retry := 4
	api := &fakeCodexAPI{
		start: StartResult{
			Status:          http.StatusTooManyRequests,
			DeviceAuthStart: model.DeviceAuthStart{Output: "Rate limited. Retry in 4s.", RetryAfterSeconds: &retry},
		},
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCodexConnector(api, time.Millisecond, time.Second)
	c.now = func() time.Time { return now }

	result, err := c.Start(context.Background())
	if err != nil || !result.RateLimited() {
		t.Fatalf("Expected rate-limited result, got %+v (%v)", result, err)
	}

	now = now.Add(time.Second)
	if _, err := c.Start(context.Background()); !errors.Is(err, ErrCoolingDown) {
		t.Errorf("Expected ErrCoolingDown, got %v", err)
	}
	if api.starts != 1 {
		t.Errorf("A start during the cooldown must not reach the gateway, got %d calls", api.starts)
	}
	if got := c.CooldownRemaining(); got != 3*time.Second {
		t.Errorf("Expected 3s left, got %v", got)
	}

	now = now.Add(3 * time.Second)
	if _, err := c.Start(context.Background()); err != nil {
		t.Errorf("Expected start after the cooldown, got %v", err)
	}
}

func TestCodexConnectorCooldownFromMessage(t *testing.T) {
	api := &fakeCodexAPI{
		start: StartResult{Status: http.StatusOK, DeviceAuthStart: model.DeviceAuthStart{Output: "rate limit hit. Retry in 7s."}},
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCodexConnector(api, time.Millisecond, time.Second)
	c.now = func() time.Time { return now }

	if _, err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.CooldownRemaining(); got != 7*time.Second {
		t.Errorf("Expected 7s cooldown, got %v", got)
	}

	if _, err := c.Disconnect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.CooldownRemaining() != 0 {
		t.Error("Disconnect must clear the cooldown")
	}
}

func TestCodexConnectorWaitForAuth(t *testing.T) {
	api := &fakeCodexAPI{
		statuses: []model.CodexStatus{
			{Message: "Awaiting device verification.", Code: "ABCD-12345"},
			{Authenticated: true, Message: "Connected"},
		},
	}
	c := NewCodexConnector(api, time.Millisecond, time.Second)

	var seen []model.CodexStatus
	status, err := c.WaitForAuth(context.Background(), func(s model.CodexStatus) { seen = append(seen, s) })

	if err != nil || !status.Authenticated {
		t.Fatalf("Expected connected, got %+v (%v)", status, err)
	}
	if len(seen) != 2 {
		t.Errorf("Expected every poll reported, got %d", len(seen))
	}
}

func TestCodexConnectorPollTimeout(t *testing.T) {
	api := &fakeCodexAPI{}
	c := NewCodexConnector(api, time.Millisecond, 20*time.Millisecond)

	if _, err := c.WaitForAuth(context.Background(), nil); !errors.Is(err, ErrPollTimeout) {
		t.Errorf("Expected ErrPollTimeout, got %v", err)
	}
}

func TestCodexConnectorPollCancelled(t *testing.T) {
	c := NewCodexConnector(&fakeCodexAPI{}, time.Millisecond, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.WaitForAuth(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
