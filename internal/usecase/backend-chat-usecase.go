package usecase

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"

	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
)

// FrameDone terminates every backend event stream.
var FrameDone = []byte("[DONE]")

type CompletionStreamer interface {
	StreamCompletion(
		ctx context.Context,
		req model.ChatRequest,
		emit func(openai.ChatCompletionStreamResponse) error,
	) error
}

type CodexChatter interface {
	Chat(ctx context.Context, req model.ChatRequest, systemPrompt string) (string, error)
}

type PromptBuilder interface {
	Build(vfs map[string]string, customPrompt string) string
}

type BackendChatUsecaseDeps struct {
	OpenRouter CompletionStreamer
	Codex      CodexChatter
	Prompts    PromptBuilder
	Log        *logger.Logger
}

// BackendChatUsecase answers chat requests on the backend itself, producing
// SSE frame payloads for the HTTP layer to write.
type BackendChatUsecase struct {
	BackendChatUsecaseDeps
}

func NewBackendChatUsecase(deps BackendChatUsecaseDeps) *BackendChatUsecase {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	deps.Log = deps.Log.Component("backend-chat")
	return &BackendChatUsecase{BackendChatUsecaseDeps: deps}
}

// Stream sends frame payloads to frames and closes it. Failures become error
// frames; the last frame is always FrameDone.
func (b *BackendChatUsecase) Stream(ctx context.Context, req model.ChatRequest, frames chan<- []byte) {
	defer close(frames)
	defer func() {
		select {
		case frames <- FrameDone:
		case <-ctx.Done():
		}
	}()

	send := func(frame []byte) error {
		select {
		case frames <- frame:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if model.ParseModelProvider(string(req.ModelProvider)) == model.ModelProviderCodex {
		reply, err := b.Codex.Chat(ctx, req, b.Prompts.Build(req.VFS, req.SystemPrompt))
		if err != nil {
			b.Log.Warn().Err(err).Msg("codex chat failed")
			_ = send(ErrorFrame(err.Error()))
			return
		}
		_ = send(encodeFrame(deltaChunk(reply)))
		return
	}

	err := b.OpenRouter.StreamCompletion(
		ctx, req, func(chunk openai.ChatCompletionStreamResponse) error {
			return send(encodeFrame(chunk))
		},
	)
	if err != nil && ctx.Err() == nil {
		b.Log.Warn().Err(err).Str("model", req.Model).Msg("openrouter stream failed")
		_ = send(ErrorFrame(err.Error()))
	}
}

func ErrorFrame(message string) []byte {
	return encodeFrame(model.ErrorBody{Error: message})
}

func deltaChunk(content string) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{Content: content}},
		},
	}
}

func encodeFrame(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":"failed to encode frame"}`)
	}
	return data
}
