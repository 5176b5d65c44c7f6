package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://backend.example.com")
	t.Setenv("RESTRICTED_DEPLOYMENT", "true")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Backend.URL != "https://backend.example.com" {
		t.Errorf("Expected backend url from env, got %q", cfg.Backend.URL)
	}
	if !cfg.Backend.Restricted {
		t.Errorf("Expected restricted deployment")
	}
	if cfg.OpenRouter.APIKey != "sk-or-test" {
		t.Errorf("Expected api key from env")
	}
	if cfg.Backend.PrimaryLocalURL != "http://127.0.0.1:8000" {
		t.Errorf("Unexpected primary local default %q", cfg.Backend.PrimaryLocalURL)
	}
	if cfg.Codex.CodeTTL != 10*time.Minute {
		t.Errorf("Expected 10m code ttl, got %v", cfg.Codex.CodeTTL)
	}
	if len(cfg.Codex.Models) != 3 {
		t.Errorf("Expected 3 default codex models, got %v", cfg.Codex.Models)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("backend:\n  url: http://localhost:9000\nprompt:\n  token_budget: 1234\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Backend.URL != "http://localhost:9000" {
		t.Errorf("Expected url from file, got %q", cfg.Backend.URL)
	}
	if cfg.Prompt.TokenBudget != 1234 {
		t.Errorf("Expected token budget 1234, got %d", cfg.Prompt.TokenBudget)
	}
	if cfg.Server.GatewayAddr != ":3000" {
		t.Errorf("Expected default gateway addr, got %q", cfg.Server.GatewayAddr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}
