package codex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

var (
	ErrNotInstalled  = errors.New("Codex CLI is not installed on backend server.")
	ErrNotConnected  = errors.New("ChatGPT Codex is not connected. Open Settings and connect Codex first.")
	ErrExecTimeout   = errors.New("Codex request timed out.")
	ErrEmptyResponse = errors.New("Codex returned an empty response.")
)

// Chat answers one request with `codex exec`, returning the whole reply.
func (m *Manager) Chat(ctx context.Context, req model.ChatRequest, systemPrompt string) (string, error) {
	if _, err := m.runner.LookPath(m.cfg.Binary); err != nil {
		return "", ErrNotInstalled
	}
	if !m.IsLoggedIn(ctx) {
		return "", ErrNotConnected
	}

	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = m.cfg.DefaultModel
	}

	outFile, err := os.CreateTemp("", "codex-chat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	outPath := outFile.Name()
	_ = outFile.Close()
	defer os.Remove(outPath)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ExecTimeout)
	defer cancel()

	out, err := m.runner.Run(
		ctx, m.cfg.Binary,
		"exec", composePrompt(req, systemPrompt), "--model", modelID, "-o", outPath,
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return "", ErrExecTimeout
	}
	if err != nil {
		return "", fmt.Errorf("failed to run codex exec: %w", err)
	}

	if out.ExitCode != 0 {
		msg := strings.TrimSpace(out.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(out.Stdout)
		}
		if msg == "" {
			msg = "Codex request failed."
		}
		return "", errors.New(ASCIISafe(msg))
	}

	var text string
	if data, err := os.ReadFile(outPath); err == nil {
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		text = strings.TrimSpace(out.Stdout)
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	m.log.Debug().Str("model", modelID).Int("chars", len(text)).Msg("codex exec finished")
	return text, nil
}

func composePrompt(req model.ChatRequest, systemPrompt string) string {
	userPrompt := strings.TrimSpace(req.Message)
	if len(req.Attachments) > 0 {
		names := make([]string, 0, len(req.Attachments))
		for _, attachment := range req.Attachments {
			names = append(names, attachment.Name)
		}
		userPrompt = fmt.Sprintf("%s\n\nAttached files: %s", userPrompt, strings.Join(names, ", "))
	}
	return fmt.Sprintf("System instructions:\n%s\n\nUser request:\n%s", systemPrompt, userPrompt)
}
