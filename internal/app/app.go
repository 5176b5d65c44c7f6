package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/handler"
	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/openrouter"
	"github.com/iamvkosarev/ai-ide-gateway/internal/prompt"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
	"github.com/iamvkosarev/ai-ide-gateway/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Run serves the gateway until SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	log := newLogger(cfg, "gateway")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	openRouter, err := newOpenRouterClient(cfg, newPromptBuilder(cfg))
	if err != nil {
		return err
	}

	resolver := relay.NewResolver(cfg.Backend)
	if _, blocked := resolver.Route(); blocked {
		log.Warn().
			Strs("candidates", resolver.Candidates()).
			Msg("backend candidates are blocked, chat goes to the provider directly")
	}

	relayDeps := usecase.RelayDeps{
		Router:  resolver,
		Relayer: relay.New(nil, log, m),
		Log:     log,
		Metrics: m,
	}

	router := handler.NewGatewayRouter(
		handler.GatewayDeps{
			Chat: usecase.NewChatUsecase(
				usecase.ChatUsecaseDeps{
					RelayDeps: relayDeps,
					Direct:    openRouter,
				},
			),
			Codex:     usecase.NewCodexUsecase(relayDeps, cfg.Codex.VerificationURL),
			Models:    usecase.NewModelsUsecase(relayDeps, openrouter.BuiltinModelList().Models, codexModels(cfg.Codex)),
			Download:  usecase.NewDownloadUsecase(relayDeps),
			Recommend: usecase.NewRecommendUsecase(relayDeps),
			Log:       log,
			Metrics:   m,
			Gatherer:  reg,
		},
	)

	return serve(log, cfg.Server.GatewayAddr, router)
}

func newLogger(cfg *config.Config, service string) *logger.Logger {
	return logger.New(
		logger.Config{
			Level:   cfg.Log.Level,
			Pretty:  cfg.Log.Pretty,
			Service: service,
		},
	)
}

func newPromptBuilder(cfg *config.Config) *prompt.Builder {
	return prompt.NewBuilder(prompt.NewCounter(cfg.Prompt.Encoding), cfg.Prompt.TokenBudget)
}

func newOpenRouterClient(cfg *config.Config, prompts *prompt.Builder) (*openrouter.Client, error) {
	aliases, err := openrouter.LoadAliasTable(cfg.OpenRouter.AliasFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load model aliases: %w", err)
	}
	return openrouter.NewClient(cfg.OpenRouter, aliases, prompts, nil), nil
}

func codexModels(cfg config.Codex) []model.ModelInfo {
	models := make([]model.ModelInfo, 0, len(cfg.Models))
	for _, id := range cfg.Models {
		models = append(models, model.ModelInfo{ID: id, Name: id})
	}
	return models
}

func serve(log *logger.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.LogServerStart(addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve on %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
