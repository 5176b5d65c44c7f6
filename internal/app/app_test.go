package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iamvkosarev/ai-ide-gateway/config"
)

func TestCodexModelsFromConfig(t *testing.T) {
	models := codexModels(config.Codex{Models: []string{"gpt-5.2-codex", "gpt-5-codex"}})

	if len(models) != 2 || models[0].ID != "gpt-5.2-codex" || models[1].Name != "gpt-5-codex" {
		t.Errorf("Unexpected models %+v", models)
	}
}

func TestNewOpenRouterClientAliasFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.OpenRouter.AliasFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := newOpenRouterClient(cfg, newPromptBuilder(cfg)); err == nil {
		t.Error("Expected an error for a missing alias file")
	}

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte("default: openai/gpt-4o\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg.OpenRouter.AliasFile = path
	if _, err := newOpenRouterClient(cfg, newPromptBuilder(cfg)); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
