package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
)

type ModelsUsecase struct {
	RelayDeps
	openRouterBuiltin model.ModelList
	codexBuiltin      model.ModelList
}

func NewModelsUsecase(deps RelayDeps, openRouterBuiltin, codexBuiltin []model.ModelInfo) *ModelsUsecase {
	deps = deps.component("models")
	return &ModelsUsecase{
		RelayDeps:         deps,
		openRouterBuiltin: model.ModelList{Models: openRouterBuiltin, Source: model.ModelSourceBuiltin},
		codexBuiltin:      model.ModelList{Models: codexBuiltin, Source: model.ModelSourceBuiltin},
	}
}

func (m *ModelsUsecase) OpenRouter(ctx context.Context, apiKey string) (*Response, error) {
	path := PathOpenRouterList
	if apiKey != "" {
		path += "?" + url.Values{"api_key": {apiKey}}.Encode()
	}
	return m.list(ctx, path, m.openRouterBuiltin)
}

func (m *ModelsUsecase) Codex(ctx context.Context) (*Response, error) {
	return m.list(ctx, PathCodexModels, m.codexBuiltin)
}

// list never fails because of the backend: blocked or unreachable backends
// yield the builtin list.
func (m *ModelsUsecase) list(ctx context.Context, path string, builtin model.ModelList) (*Response, error) {
	resp, err := m.forward(ctx, relay.Request{Path: path, Method: http.MethodGet})
	if err == nil {
		return relayed(resp), nil
	}
	var unreachable *relay.UnreachableError
	if errors.Is(err, errBlocked) || errors.As(err, &unreachable) {
		m.Log.Info().Str("path", stripQuery(path)).Err(err).Msg("serving builtin models")
		return payload(http.StatusOK, builtin), nil
	}
	return nil, err
}
