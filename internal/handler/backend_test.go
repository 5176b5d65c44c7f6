package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/openrouter"
)

type fakeChatStreamer struct {
	frames []string
	got    model.ChatRequest
}

func (f *fakeChatStreamer) Stream(ctx context.Context, req model.ChatRequest, frames chan<- []byte) {
	defer close(frames)
	f.got = req
	for _, frame := range f.frames {
		select {
		case frames <- []byte(frame):
		case <-ctx.Done():
			return
		}
	}
}

type fakeCodexAuth struct {
	start model.DeviceAuthStart
}

func (f *fakeCodexAuth) Status(context.Context) model.CodexStatus {
	return model.CodexStatus{Authenticated: true, Message: "Connected"}
}

func (f *fakeCodexAuth) Start(context.Context) model.DeviceAuthStart {
	return f.start
}

func (f *fakeCodexAuth) Disconnect() model.DisconnectResult {
	return model.DisconnectResult{OK: true, Message: "Disconnected"}
}

func (f *fakeCodexAuth) Models() model.ModelList {
	return model.ModelList{Models: []model.ModelInfo{{ID: "gpt-5.2-codex"}}, Source: model.ModelSourceCodex}
}

type fakeCatalogue struct {
	models []model.ModelInfo
	err    error
}

func (f fakeCatalogue) List(context.Context, string) ([]model.ModelInfo, error) {
	return f.models, f.err
}

func newBackend(chat *fakeChatStreamer, codex *fakeCodexAuth, catalogue fakeCatalogue) *gin.Engine {
	return NewBackendRouter(BackendDeps{Chat: chat, Codex: codex, Catalogue: catalogue})
}

func TestBackendChatWritesFrames(t *testing.T) {
	chat := &fakeChatStreamer{frames: []string{`{"choices":[]}`, "[DONE]"}}
	r := newBackend(chat, &fakeCodexAuth{}, fakeCatalogue{})

	w := do(r, http.MethodPost, "/api/chat", `{"message":"hi","model":"gpt-4o"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	want := "data: {\"choices\":[]}\n\ndata: [DONE]\n\n"
	if w.Body.String() != want {
		t.Errorf("Expected %q, got %q", want, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("Unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if chat.got.Model != "gpt-4o" {
		t.Errorf("Expected request forwarded to the streamer, got %+v", chat.got)
	}
}

func TestBackendChatValidation(t *testing.T) {
	r := newBackend(&fakeChatStreamer{}, &fakeCodexAuth{}, fakeCatalogue{})

	if w := do(r, http.MethodPost, "/api/chat", `{"message":"  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty message, got %d", w.Code)
	}
	w := do(
		r, http.MethodPost, "/api/chat",
		`{"message":"hi","attachments":[{"name":"a.txt","mime_type":"text/plain","data_base64":"AA"}]}`,
	)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for text attachment, got %d", w.Code)
	}
}

func TestBackendDownloadZip(t *testing.T) {
	r := newBackend(&fakeChatStreamer{}, &fakeCodexAuth{}, fakeCatalogue{})

	w := do(r, http.MethodPost, "/api/code/download", `{"vfs":{"index.html":"<h1>Hi</h1>","src/app.js":"run()"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Disposition") != `attachment; filename="project.zip"` {
		t.Errorf("Unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	if err != nil {
		t.Fatal(err)
	}
	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		contents[f.Name] = string(data)
	}
	if contents["index.html"] != "<h1>Hi</h1>" || contents["src/app.js"] != "run()" {
		t.Errorf("Unexpected archive contents %v", contents)
	}
}

func TestBackendDownloadRejectsBadInput(t *testing.T) {
	r := newBackend(&fakeChatStreamer{}, &fakeCodexAuth{}, fakeCatalogue{})

	for _, body := range []string{`{"vfs":{}}`, `{"vfs":{"../etc/passwd":"x"}}`} {
		if w := do(r, http.MethodPost, "/api/code/download", body); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", body, w.Code)
		}
	}
}

func TestBackendCodexStartRateLimited(t *testing.T) {
	code := "ABCD-12345"
	retry := 4
	codex := &fakeCodexAuth{start: model.DeviceAuthStart{Code: &code, RetryAfterSeconds: &retry}}
	r := newBackend(&fakeChatStreamer{}, codex, fakeCatalogue{})

	w := do(r, http.MethodPost, "/api/codex/device-auth/start", "")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "4" {
		t.Errorf("Expected Retry-After 4, got %q", w.Header().Get("Retry-After"))
	}
	var got model.DeviceAuthStart
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Code == nil || *got.Code != code {
		t.Errorf("Expected current code kept, got %+v", got)
	}
}

func TestBackendCodexStartIssued(t *testing.T) {
	code := "ABCD-12345"
	r := newBackend(&fakeChatStreamer{}, &fakeCodexAuth{start: model.DeviceAuthStart{Code: &code}}, fakeCatalogue{})

	if w := do(r, http.MethodGet, "/api/codex/device-auth/start", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/codex/disconnect", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 on disconnect, got %d", w.Code)
	}
}

func TestBackendOpenRouterModels(t *testing.T) {
	tests := []struct {
		name      string
		catalogue fakeCatalogue
		status    int
		models    int
	}{
		{
			name:      "ok",
			catalogue: fakeCatalogue{models: []model.ModelInfo{{ID: "a"}, {ID: "b"}}},
			status:    http.StatusOK,
			models:    2,
		},
		{
			name:      "missing key",
			catalogue: fakeCatalogue{err: openrouter.ErrMissingAPIKey},
			status:    http.StatusUnauthorized,
		},
		{
			name:      "upstream failure",
			catalogue: fakeCatalogue{err: errors.New("boom")},
			status:    http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newBackend(&fakeChatStreamer{}, &fakeCodexAuth{}, tt.catalogue)
			w := do(r, http.MethodGet, "/api/models/openrouter", "")
			if w.Code != tt.status {
				t.Fatalf("Expected %d, got %d", tt.status, w.Code)
			}
			var list model.ModelList
			if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
				t.Fatal(err)
			}
			if list.Models == nil || len(list.Models) != tt.models {
				t.Errorf("Expected %d models in a non-null list, got %+v", tt.models, list)
			}
			if tt.status != http.StatusOK && list.Error == "" {
				t.Error("Expected error message")
			}
		})
	}
}

func TestBackendRecommend(t *testing.T) {
	r := newBackend(&fakeChatStreamer{}, &fakeCodexAuth{}, fakeCatalogue{})
	w := do(r, http.MethodPost, "/api/models/recommend", `{"message":"hello","candidates":[]}`)

	var got model.Recommendation
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Recommended != nil || got.Reason == "" {
		t.Errorf("Expected no recommendation for empty candidates, got %+v", got)
	}
}
