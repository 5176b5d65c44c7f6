package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/codex"
	"github.com/iamvkosarev/ai-ide-gateway/internal/handler"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
	"github.com/iamvkosarev/ai-ide-gateway/internal/openrouter"
	"github.com/iamvkosarev/ai-ide-gateway/internal/usecase"
)

// RunBackend serves the backend the gateway relays to.
func RunBackend(cfg *config.Config) error {
	log := newLogger(cfg, "backend")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	prompts := newPromptBuilder(cfg)
	openRouter, err := newOpenRouterClient(cfg, prompts)
	if err != nil {
		return err
	}
	manager := codex.NewManager(cfg.Codex, codex.ExecRunner{}, log)
	if _, err := (codex.ExecRunner{}).LookPath(cfg.Codex.Binary); err != nil {
		log.Warn().Str("binary", cfg.Codex.Binary).Msg("codex cli not found, device auth will report it")
	}

	router := handler.NewBackendRouter(
		handler.BackendDeps{
			Chat: usecase.NewBackendChatUsecase(
				usecase.BackendChatUsecaseDeps{
					OpenRouter: openRouter,
					Codex:      manager,
					Prompts:    prompts,
					Log:        log,
				},
			),
			Codex:     manager,
			Catalogue: openrouter.NewCatalogue(openRouter),
			Log:       log,
			Metrics:   m,
			Gatherer:  reg,
		},
	)

	return serve(log, cfg.Server.BackendAddr, router)
}
