package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
)

const (
	PathChat           = "/api/chat"
	PathDownload       = "/api/code/download"
	PathCodexStart     = "/api/codex/device-auth/start"
	PathCodexStatus    = "/api/codex/status"
	PathCodexLogout    = "/api/codex/disconnect"
	PathCodexModels    = "/api/models/codex"
	PathOpenRouterList = "/api/models/openrouter"
	PathRecommend      = "/api/models/recommend"

	contentTypeJSON = "application/json"
)

var errBlocked = errors.New("backend is blocked in this deployment")

type Router interface {
	Route() ([]string, bool)
}

type Relayer interface {
	Do(ctx context.Context, candidates []string, req relay.Request) (*http.Response, error)
}

type RelayDeps struct {
	Router  Router
	Relayer Relayer
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

// Response is what a gateway operation hands back to the HTTP layer: either a
// relayed upstream body or a payload produced by the gateway itself.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        io.ReadCloser
	Payload     any
}

func relayed(resp *http.Response) *Response {
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Header:      resp.Header,
		Body:        resp.Body,
	}
}

func payload(status int, body any) *Response {
	return &Response{Status: status, ContentType: contentTypeJSON, Payload: body}
}

// forward relays req unless the first candidate is blocked, in which case it
// returns errBlocked without touching the network.
func (d RelayDeps) forward(ctx context.Context, req relay.Request) (*http.Response, error) {
	candidates, blocked := d.Router.Route()
	if blocked {
		d.Log.Info().Str("path", req.Path).Msg("backend blocked, skipping relay")
		d.Metrics.RecordRelayAttempt(stripQuery(req.Path), metrics.OutcomeBlocked)
		return nil, errBlocked
	}
	return d.Relayer.Do(ctx, candidates, req)
}

func (d RelayDeps) component(name string) RelayDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Log = d.Log.Component(name)
	return d
}

func stripQuery(path string) string {
	path, _, _ = strings.Cut(path, "?")
	return path
}
