package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
)

const (
	ContentTypeEventStream = "text/event-stream"

	fallbackReasonBlocked     = "blocked"
	fallbackReasonUnreachable = "unreachable"
)

var ErrCodexBackendRequired = errors.New(
	"ChatGPT Codex requires the local backend, which is not reachable from this deployment",
)

type DirectProvider interface {
	StreamDirect(ctx context.Context, req model.ChatRequest) (io.ReadCloser, error)
}

type ChatUsecaseDeps struct {
	RelayDeps
	Direct DirectProvider
}

type ChatUsecase struct {
	ChatUsecaseDeps
}

func NewChatUsecase(deps ChatUsecaseDeps) *ChatUsecase {
	deps.RelayDeps = deps.RelayDeps.component("chat")
	return &ChatUsecase{ChatUsecaseDeps: deps}
}

// Chat relays the request to the backend and falls back to the direct
// provider when the backend is blocked or unreachable. Requests pinned to
// Codex never fall back.
func (c *ChatUsecase) Chat(ctx context.Context, req model.ChatRequest) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, model.ErrEmptyMessage
	}
	if err := req.ValidateAttachments(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	resp, err := c.forward(
		ctx, relay.Request{
			Path:        PathChat,
			Method:      http.MethodPost,
			ContentType: contentTypeJSON,
			Body:        body,
		},
	)
	if err == nil {
		return relayed(resp), nil
	}

	var unreachable *relay.UnreachableError
	var reason string
	switch {
	case errors.Is(err, errBlocked):
		reason = fallbackReasonBlocked
	case errors.As(err, &unreachable):
		reason = fallbackReasonUnreachable
	default:
		return nil, err
	}

	if req.ModelProvider.Pinned() {
		c.Log.Warn().Str("reason", reason).Msg("codex request cannot fall back")
		return nil, fmt.Errorf("%w: %v", ErrCodexBackendRequired, err)
	}
	return c.direct(ctx, req, reason)
}

func (c *ChatUsecase) direct(ctx context.Context, req model.ChatRequest, reason string) (*Response, error) {
	c.Log.Warn().
		Str("reason", reason).
		Str("model", req.Model).
		Bool("has_api_key", req.APIKey != "").
		Msg("falling back to direct provider")
	c.Metrics.RecordDirectFallback(reason)

	stream, err := c.Direct.StreamDirect(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Response{
		Status:      http.StatusOK,
		ContentType: ContentTypeEventStream,
		Body:        stream,
	}, nil
}
