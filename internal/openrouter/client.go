// Package openrouter talks to the OpenRouter chat completions API directly,
// bypassing the configurable backend.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/iamvkosarev/ai-ide-gateway/config"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/prompt"
)

var supportedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/gif":  {},
	"image/webp": {},
}

// StatusError carries the upstream HTTP status and body of a failed call.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openrouter returned %d: %s", e.Status, e.Body)
}

type Client struct {
	httpClient *http.Client
	cfg        config.OpenRouter
	aliases    *AliasTable
	prompts    *prompt.Builder
}

func NewClient(cfg config.OpenRouter, aliases *AliasTable, prompts *prompt.Builder, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if aliases == nil {
		aliases = DefaultAliasTable()
	}
	if prompts == nil {
		prompts = prompt.NewBuilder(nil, 0)
	}
	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		aliases:    aliases,
		prompts:    prompts,
	}
}

// BuildRequest translates a client chat request into the OpenRouter wire format.
func (c *Client) BuildRequest(req model.ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system := c.systemPrompt(req); system != "" {
		messages = append(
			messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
		)
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if parts := imageParts(req.Attachments); len(parts) > 0 {
		user.MultiContent = append(
			[]openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Message}},
			parts...,
		)
	} else {
		user.Content = req.Message
	}
	messages = append(messages, user)

	return openai.ChatCompletionRequest{
		Model:    c.aliases.Resolve(req.Model),
		Messages: messages,
		Stream:   true,
	}
}

// StreamDirect opens a streaming completion and returns the upstream
// event-stream body untouched. The caller must close it.
func (c *Client) StreamDirect(ctx context.Context, req model.ChatRequest) (io.ReadCloser, error) {
	apiKey, err := ResolveAPIKey(req.APIKey, c.cfg.APIKey)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(c.BuildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ChatURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	c.setAppHeaders(httpReq.Header)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &StatusError{Status: http.StatusBadGateway, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.ContentLength == 0 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(resp.Body)
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = fmt.Sprintf("upstream responded %s without a body", resp.Status)
		}
		return nil, &StatusError{Status: status, Body: msg}
	}
	return resp.Body, nil
}

// StreamCompletion streams through the go-openai client and hands every chunk
// to emit. Used by the backend, which re-frames chunks itself.
func (c *Client) StreamCompletion(
	ctx context.Context,
	req model.ChatRequest,
	emit func(openai.ChatCompletionStreamResponse) error,
) error {
	apiKey, err := ResolveAPIKey(req.APIKey, c.cfg.APIKey)
	if err != nil {
		return err
	}
	stream, err := c.openAIClient(apiKey).CreateChatCompletionStream(ctx, c.BuildRequest(req))
	if err != nil {
		return fmt.Errorf("failed to create completion stream: %w", err)
	}
	defer stream.Close()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stream error: %w", err)
		}
		if err = emit(response); err != nil {
			return err
		}
	}
}

func (c *Client) openAIClient(apiKey string) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = c.cfg.BaseURL
	clientConfig.HTTPClient = &headerClient{client: c.httpClient, setHeaders: c.setAppHeaders}
	return openai.NewClientWithConfig(clientConfig)
}

func (c *Client) setAppHeaders(h http.Header) {
	if c.cfg.Referer != "" {
		h.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		h.Set("X-Title", c.cfg.Title)
	}
}

func (c *Client) systemPrompt(req model.ChatRequest) string {
	if len(req.VFS) > 0 {
		return c.prompts.Build(req.VFS, req.SystemPrompt)
	}
	return strings.TrimSpace(req.SystemPrompt)
}

func imageParts(attachments []model.Attachment) []openai.ChatMessagePart {
	parts := make([]openai.ChatMessagePart, 0, len(attachments))
	for _, attachment := range attachments {
		mimeType := strings.ToLower(strings.TrimSpace(attachment.MimeType))
		if _, ok := supportedImageTypes[mimeType]; !ok || attachment.DataBase64 == "" {
			continue
		}
		parts = append(
			parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", mimeType, attachment.DataBase64),
				},
			},
		)
	}
	return parts
}

// headerClient adds the OpenRouter attribution headers to go-openai requests.
type headerClient struct {
	client     *http.Client
	setHeaders func(http.Header)
}

func (h *headerClient) Do(req *http.Request) (*http.Response, error) {
	h.setHeaders(req.Header)
	return h.client.Do(req)
}
