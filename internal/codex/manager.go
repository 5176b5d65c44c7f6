// Package codex drives the Codex CLI: device-code login, session status and
// one-shot chat completions.
package codex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

const (
	msgNotAuthenticated = "Not authenticated."
	msgConnected        = "Connected"
	msgAlreadyConnected = "Already connected."
	msgAwaiting         = "Awaiting device verification."
	msgEnterCode        = "Open the verification URL and enter the code."
	msgDisconnected     = "Disconnected"
	msgNotInstalled     = "Codex CLI is not installed on backend server. Install Codex CLI first."
	msgBinaryNotFound   = "Codex CLI binary not found in PATH."
	msgLoginTimedOut    = "Timed out while starting Codex device auth. Try again."
	msgNoCode           = "Codex CLI did not return a device code."

	statusTimeout = 10 * time.Second
)

var loginCommands = [][]string{
	{"login", "--device-auth"},
	{"login"},
}

// Manager owns the device authorization state of the local Codex CLI.
type Manager struct {
	cfg    config.Codex
	runner Runner
	log    *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   model.CodexConnectState
	limiter *rate.Limiter
}

func NewManager(cfg config.Codex, runner Runner, log *logger.Logger) *Manager {
	if runner == nil {
		runner = ExecRunner{}
	}
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		cfg:    cfg,
		runner: runner,
		log:    log.Component("codex"),
		now:    time.Now,
	}
	m.reset(msgNotAuthenticated)
	return m
}

func (m *Manager) reset(message string) {
	m.state = model.CodexConnectState{
		VerificationURL: m.cfg.VerificationURL,
		Message:         message,
	}
	m.limiter = rate.NewLimiter(rate.Every(m.cfg.MinRetry), 1)
}

func (m *Manager) Status(ctx context.Context) model.CodexStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireCode(m.now())
	if !m.state.Authenticated && m.IsLoggedIn(ctx) {
		m.markConnected(m.cfg.VerificationURL)
	}

	status := model.CodexStatus{
		Authenticated:   m.state.Authenticated,
		Message:         m.state.Message,
		VerificationURL: m.verificationURL(),
	}
	if code, ok := NormalizeDeviceCode(m.state.DeviceCode); ok {
		m.state.DeviceCode = code
		status.Code = code
	} else {
		m.state.DeviceCode = ""
	}
	return status
}

// Start begins a device-code login. Calls closer together than the configured
// minimum retry interval return the current state with RetryAfterSeconds set.
func (m *Manager) Start(ctx context.Context) model.DeviceAuthStart {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.expireCode(now)

	if retry := m.retryAfter(now); retry > 0 {
		var code *string
		if m.state.DeviceCode != "" {
			code = stringPtr(m.state.DeviceCode)
		}
		return model.DeviceAuthStart{
			Authenticated:     m.state.Authenticated,
			Code:              code,
			VerificationURL:   m.verificationURL(),
			Output:            fmt.Sprintf("Rate limited. Retry in %ds.", retry),
			RetryAfterSeconds: &retry,
		}
	}
	if m.state.Authenticated {
		return model.DeviceAuthStart{
			Authenticated:   true,
			VerificationURL: m.verificationURL(),
			Output:          msgAlreadyConnected,
		}
	}

	code, output, url := m.runDeviceLogin(ctx)
	now = m.now()
	m.limiter.AllowN(now, 1)
	m.state.CooldownUntil = now.Add(m.cfg.MinRetry)
	if url == "" {
		url = m.cfg.VerificationURL
	}

	if m.state.Authenticated {
		m.markConnected(url)
		return model.DeviceAuthStart{
			Authenticated:   true,
			VerificationURL: url,
			Output:          output,
		}
	}

	normalized, ok := NormalizeDeviceCode(code)
	if !ok {
		m.state.DeviceCode = ""
		m.state.CodeExpiresAt = time.Time{}
		m.state.Message = output
		m.state.VerificationURL = url
		m.log.Warn().Str("output", output).Msg("device auth returned no code")
		return model.DeviceAuthStart{VerificationURL: url, Output: output}
	}

	m.state.DeviceCode = normalized
	m.state.CodeExpiresAt = now.Add(m.cfg.CodeTTL)
	m.state.Message = msgAwaiting
	m.state.VerificationURL = url
	m.log.Info().Time("expires_at", m.state.CodeExpiresAt).Msg("device code issued")
	return model.DeviceAuthStart{
		Code:            stringPtr(normalized),
		VerificationURL: url,
		Output:          msgEnterCode,
	}
}

// Disconnect forgets the session and clears the start cooldown. The CLI's own
// credentials are left in place.
func (m *Manager) Disconnect() model.DisconnectResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset(msgDisconnected)
	m.log.Info().Msg("disconnected")
	return model.DisconnectResult{OK: true, Message: msgDisconnected}
}

// IsLoggedIn asks the CLI whether it holds a valid session.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	if _, err := m.runner.LookPath(m.cfg.Binary); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	out, err := m.runner.Run(ctx, m.cfg.Binary, "login", "status")
	if err != nil {
		return false
	}
	return out.ExitCode == 0 && strings.Contains(strings.ToLower(out.Combined()), "logged in")
}

func (m *Manager) Models() model.ModelList {
	models := make([]model.ModelInfo, 0, len(m.cfg.Models))
	for _, id := range m.cfg.Models {
		if id = strings.TrimSpace(id); id != "" {
			models = append(models, model.ModelInfo{ID: id, Name: id})
		}
	}
	return model.ModelList{Models: models, Source: model.ModelSourceCodex}
}

func (m *Manager) runDeviceLogin(ctx context.Context) (code, output, url string) {
	if _, err := m.runner.LookPath(m.cfg.Binary); err != nil {
		return "", msgNotInstalled, ""
	}
	if m.IsLoggedIn(ctx) {
		m.markConnected(m.cfg.VerificationURL)
		return "", msgAlreadyConnected, m.cfg.VerificationURL
	}

	var lastOutput string
	for _, args := range loginCommands {
		runCtx, cancel := context.WithTimeout(ctx, m.cfg.LoginTimeout)
		out, err := m.runner.Run(runCtx, m.cfg.Binary, args...)
		cancel()

		cleaned := CleanOutput(out.Combined())
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			// device login keeps waiting for the user; the code is already printed
			if code, ok := ExtractDeviceCode(cleaned); ok {
				url, _ := ExtractVerificationURL(cleaned)
				return code, msgEnterCode, url
			}
			if m.IsLoggedIn(ctx) {
				m.markConnected(m.cfg.VerificationURL)
				return "", msgAlreadyConnected, m.cfg.VerificationURL
			}
			return "", msgLoginTimedOut, ""
		case err != nil:
			m.log.Error().Err(err).Strs("args", args).Msg("failed to run codex login")
			return "", msgBinaryNotFound, ""
		}

		if cleaned != "" {
			lastOutput = cleaned
		}
		if code, ok := ExtractDeviceCode(cleaned); ok {
			url, _ := ExtractVerificationURL(cleaned)
			return code, msgEnterCode, url
		}
		if m.IsLoggedIn(ctx) {
			m.markConnected(m.cfg.VerificationURL)
			return "", msgAlreadyConnected, m.cfg.VerificationURL
		}
	}

	if lastOutput != "" {
		return "", fmt.Sprintf("%s Output: %s", msgNoCode, lastOutput), ""
	}
	return "", msgNoCode, ""
}

func (m *Manager) markConnected(url string) {
	m.state.Authenticated = true
	m.state.Message = msgConnected
	m.state.DeviceCode = ""
	m.state.CodeExpiresAt = time.Time{}
	m.state.VerificationURL = url
}

func (m *Manager) expireCode(now time.Time) {
	if m.state.DeviceCode == "" || m.state.CodeExpiresAt.IsZero() || now.Before(m.state.CodeExpiresAt) {
		return
	}
	m.state.DeviceCode = ""
	m.state.CodeExpiresAt = time.Time{}
	if !m.state.Authenticated {
		m.state.Message = msgNotAuthenticated
	}
}

// retryAfter returns whole seconds until the next Start is allowed, or zero.
func (m *Manager) retryAfter(now time.Time) int {
	tokens := m.limiter.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	wait := time.Duration((1 - tokens) * float64(m.cfg.MinRetry))
	return max(1, int(wait.Round(time.Second)/time.Second))
}

func (m *Manager) verificationURL() string {
	if m.state.VerificationURL != "" {
		return m.state.VerificationURL
	}
	return m.cfg.VerificationURL
}

func stringPtr(s string) *string {
	return &s
}
