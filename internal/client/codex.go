package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

const defaultCooldown = 5 * time.Second

var (
	ErrCoolingDown = errors.New("device auth was rate limited")
	ErrPollTimeout = errors.New("timed out waiting for device verification")
)

var (
	rateLimitPattern  = regexp.MustCompile(`(?i)rate[ -]?limit|too many requests`)
	retryAfterPattern = regexp.MustCompile(`(?i)retry in (\d+)\s*s`)
)

func isRateLimitMessage(text string) bool {
	return rateLimitPattern.MatchString(text)
}

type CodexAPI interface {
	CodexStart(ctx context.Context) (StartResult, error)
	CodexStatus(ctx context.Context) (model.CodexStatus, error)
	CodexDisconnect(ctx context.Context) (model.DisconnectResult, error)
}

// CodexConnector runs the device-code flow from the client side: it refuses
// starts while a rate-limit cooldown is active and polls for verification.
type CodexConnector struct {
	api      CodexAPI
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu            sync.Mutex
	cooldownUntil time.Time
}

func NewCodexConnector(api CodexAPI, interval, timeout time.Duration) *CodexConnector {
	return &CodexConnector{
		api:      api,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

// CooldownRemaining is zero when a start may be sent.
func (c *CodexConnector) CooldownRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := c.cooldownUntil.Sub(c.now()); wait > 0 {
		return wait
	}
	return 0
}

func (c *CodexConnector) Start(ctx context.Context) (StartResult, error) {
	if wait := c.CooldownRemaining(); wait > 0 {
		return StartResult{}, fmt.Errorf("%w: retry in %ds", ErrCoolingDown, int(math.Ceil(wait.Seconds())))
	}
	result, err := c.api.CodexStart(ctx)
	if err != nil {
		return StartResult{}, err
	}
	if result.RateLimited() {
		c.mu.Lock()
		c.cooldownUntil = c.now().Add(retryAfter(result))
		c.mu.Unlock()
	}
	return result, nil
}

// WaitForAuth polls the status every interval until the account is connected.
// It gives up with ErrPollTimeout after the configured timeout. Failed polls
// are reported to onStatus as a message and retried.
func (c *CodexConnector) WaitForAuth(ctx context.Context, onStatus func(model.CodexStatus)) (model.CodexStatus, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return model.CodexStatus{}, err
			}
			return model.CodexStatus{}, ErrPollTimeout
		case <-ticker.C:
		}

		status, err := c.api.CodexStatus(pollCtx)
		if err != nil {
			status = model.CodexStatus{Message: err.Error()}
		}
		if onStatus != nil {
			onStatus(status)
		}
		if status.Authenticated {
			return status, nil
		}
	}
}

func (c *CodexConnector) Disconnect(ctx context.Context) (model.DisconnectResult, error) {
	result, err := c.api.CodexDisconnect(ctx)
	if err != nil {
		return model.DisconnectResult{}, err
	}
	c.mu.Lock()
	c.cooldownUntil = time.Time{}
	c.mu.Unlock()
	return result, nil
}

func retryAfter(result StartResult) time.Duration {
	if result.RetryAfterSeconds != nil && *result.RetryAfterSeconds > 0 {
		return time.Duration(*result.RetryAfterSeconds) * time.Second
	}
	if match := retryAfterPattern.FindStringSubmatch(result.Output); match != nil {
		if seconds, err := strconv.Atoi(match[1]); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultCooldown
}
