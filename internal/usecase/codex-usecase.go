package usecase

import (
	"context"
	"errors"
	"net/http"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
)

const codexBlockedMessage = "ChatGPT Codex needs a backend running on your machine. " +
	"This hosted deployment cannot reach it; run the backend locally to connect Codex."

type CodexUsecase struct {
	RelayDeps
	verificationURL string
}

func NewCodexUsecase(deps RelayDeps, verificationURL string) *CodexUsecase {
	deps = deps.component("codex")
	return &CodexUsecase{RelayDeps: deps, verificationURL: verificationURL}
}

func (c *CodexUsecase) Status(ctx context.Context) (*Response, error) {
	return c.relayOr(
		ctx, http.MethodGet, PathCodexStatus,
		payload(http.StatusOK, model.CodexStatus{Message: codexBlockedMessage}),
	)
}

func (c *CodexUsecase) Start(ctx context.Context) (*Response, error) {
	return c.relayOr(
		ctx, http.MethodGet, PathCodexStart,
		payload(
			http.StatusInternalServerError, model.DeviceAuthStart{
				VerificationURL: c.verificationURL,
				Output:          codexBlockedMessage,
			},
		),
	)
}

func (c *CodexUsecase) Disconnect(ctx context.Context) (*Response, error) {
	return c.relayOr(
		ctx, http.MethodPost, PathCodexLogout,
		payload(http.StatusInternalServerError, model.DisconnectResult{Message: codexBlockedMessage}),
	)
}

// relayOr relays the call, answering with blocked when the backend cannot be
// reached from this deployment at all.
func (c *CodexUsecase) relayOr(ctx context.Context, method, path string, blocked *Response) (*Response, error) {
	resp, err := c.forward(ctx, relay.Request{Path: path, Method: method})
	if errors.Is(err, errBlocked) {
		return blocked, nil
	}
	if err != nil {
		return nil, err
	}
	return relayed(resp), nil
}
