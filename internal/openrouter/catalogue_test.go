package openrouter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCatalogueCachesModels(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"openai/gpt-4o","object":"model"}]}`)
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	catalogue := NewCatalogue(newTestClient(srv.URL, "sk-or-env"))
	catalogue.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		models, err := catalogue.List(context.Background(), "")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(models) != 1 || models[0].ID != "openai/gpt-4o" {
			t.Fatalf("Unexpected models: %+v", models)
		}
	}
	if calls != 1 {
		t.Errorf("Expected one upstream call inside the TTL, got %d", calls)
	}

	now = now.Add(ModelCacheTTL + time.Second)
	if _, err := catalogue.List(context.Background(), ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected refresh after TTL, got %d calls", calls)
	}
}
