// Package client drives the gateway from a terminal: the chat controller with
// its prompt queue, the device-code connector and the persisted app state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/usecase"
)

// APIError is a non-2xx answer of the gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

type API struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Stream is an open chat answer. The caller must close it.
type Stream struct {
	body io.ReadCloser
}

func (s *Stream) Deltas() iter.Seq2[string, error] {
	return Deltas(s.body)
}

func (s *Stream) Close() error {
	return s.body.Close()
}

func (a *API) StreamChat(ctx context.Context, req model.ChatRequest) (*Stream, error) {
	resp, err := a.do(ctx, http.MethodPost, usecase.PathChat, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return &Stream{body: resp.Body}, nil
}

func (a *API) CodexStatus(ctx context.Context) (model.CodexStatus, error) {
	var status model.CodexStatus
	err := a.getJSON(ctx, http.MethodGet, usecase.PathCodexStatus, nil, &status)
	return status, err
}

// StartResult is the answer to a device-auth start together with its HTTP status.
type StartResult struct {
	model.DeviceAuthStart
	Status int
}

func (r StartResult) RateLimited() bool {
	return r.Status == http.StatusTooManyRequests || isRateLimitMessage(r.Output)
}

// CodexStart asks for a device code. Rate-limited and failed starts still
// carry a payload, so any JSON answer is returned as a result.
func (a *API) CodexStart(ctx context.Context) (StartResult, error) {
	resp, err := a.do(ctx, http.MethodPost, usecase.PathCodexStart, nil)
	if err != nil {
		return StartResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StartResult{}, fmt.Errorf("failed to read device auth answer: %w", err)
	}
	result := StartResult{Status: resp.StatusCode}
	if err := json.Unmarshal(body, &result.DeviceAuthStart); err != nil {
		return StartResult{}, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return result, nil
}

func (a *API) CodexDisconnect(ctx context.Context) (model.DisconnectResult, error) {
	var result model.DisconnectResult
	err := a.getJSON(ctx, http.MethodPost, usecase.PathCodexLogout, nil, &result)
	return result, err
}

func (a *API) Models(ctx context.Context, provider model.ModelProvider, apiKey string) (model.ModelList, error) {
	path := usecase.PathOpenRouterList
	if provider == model.ModelProviderCodex {
		path = usecase.PathCodexModels
	} else if apiKey != "" {
		path += "?api_key=" + url.QueryEscape(apiKey)
	}
	var list model.ModelList
	err := a.getJSON(ctx, http.MethodGet, path, nil, &list)
	return list, err
}

func (a *API) Recommend(ctx context.Context, req model.RecommendRequest) (model.Recommendation, error) {
	var recommendation model.Recommendation
	err := a.getJSON(ctx, http.MethodPost, usecase.PathRecommend, req, &recommendation)
	return recommendation, err
}

// Download writes the project archive built from vfs to w.
func (a *API) Download(ctx context.Context, vfs map[string]string, w io.Writer) error {
	resp, err := a.do(ctx, http.MethodPost, usecase.PathDownload, usecase.DownloadRequest{VFS: vfs})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return nil
}

func (a *API) getJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := a.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s answer: %w", path, err)
	}
	return nil
}

func (a *API) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}
	return resp, nil
}

// decodeError turns a failed answer into an *APIError, taking the message
// from a JSON error envelope when there is one.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	message := strings.TrimSpace(string(data))

	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Error) > 0 {
		message = errorMessage(envelope.Error)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}
