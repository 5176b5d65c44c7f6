package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
)

type Request struct {
	Path        string // may carry a query string
	Method      string
	ContentType string
	Body        []byte
}

type Attempt struct {
	URL string
	Err error
}

// UnreachableError is returned when every candidate failed at the transport level.
type UnreachableError struct {
	Attempts []Attempt
}

func (e *UnreachableError) Error() string {
	if len(e.Attempts) == 0 {
		return "backend unreachable: no candidate URLs configured"
	}
	urls := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		urls = append(urls, attempt.URL)
	}
	return fmt.Sprintf(
		"backend unreachable. Tried: %s. Last error: %v",
		strings.Join(urls, ", "), e.Attempts[len(e.Attempts)-1].Err,
	)
}

func (e *UnreachableError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

type Relay struct {
	client  *http.Client
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New builds a relay. The client carries no timeout of its own: streams may
// run for minutes and the caller's context is the only cancellation.
func New(client *http.Client, log *logger.Logger, m *metrics.Metrics) *Relay {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{
		client:  client,
		log:     log.Component("relay"),
		metrics: m,
	}
}

// Do tries candidates strictly in order and returns the first HTTP response,
// whatever its status. The caller owns the response body.
func (r *Relay) Do(ctx context.Context, candidates []string, req Request) (*http.Response, error) {
	attempts := make([]Attempt, 0, len(candidates))
	for _, base := range candidates {
		target := strings.TrimRight(base, "/") + req.Path
		start := time.Now()
		resp, err := r.send(ctx, target, req)
		if err == nil {
			r.record(base, req, metrics.OutcomeResponse, start, nil)
			return resp, nil
		}
		r.record(base, req, metrics.OutcomeTransportError, start, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		attempts = append(attempts, Attempt{URL: target, Err: err})
	}
	return nil, &UnreachableError{Attempts: attempts}
}

func (r *Relay) send(ctx context.Context, target string, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	return r.client.Do(httpReq)
}

func (r *Relay) record(base string, req Request, outcome string, start time.Time, err error) {
	path := req.Path
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	r.log.LogRelayAttempt(base, path, outcome, time.Since(start), err)
	if r.metrics != nil {
		r.metrics.RecordRelayAttempt(path, outcome)
	}
}
