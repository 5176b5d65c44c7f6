package client

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	framePrefix = "data:"
	frameDone   = "[DONE]"
)

// UpstreamError is an error envelope received inside a chat stream.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Frame is one decoded stream payload: either a text delta or an upstream error.
type Frame struct {
	Delta string
	Err   *UpstreamError
}

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// ParseFrame decodes one frame payload. ok is false for payloads that carry
// nothing usable, malformed ones included.
func ParseFrame(payload []byte) (frame Frame, ok bool) {
	var envelope errorEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Frame{}, false
	}
	if len(envelope.Error) > 0 && !bytes.Equal(envelope.Error, []byte("null")) {
		return Frame{Err: &UpstreamError{Message: errorMessage(envelope.Error)}}, true
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return Frame{}, false
	}
	var delta strings.Builder
	for _, choice := range chunk.Choices {
		delta.WriteString(choice.Delta.Content)
	}
	if delta.Len() == 0 {
		return Frame{}, false
	}
	return Frame{Delta: delta.String()}, true
}

// errorMessage accepts both `"error": "text"` and `"error": {"message": "text"}`.
func errorMessage(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil && text != "" {
		return text
	}
	var object struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &object); err == nil && object.Message != "" {
		return object.Message
	}
	return string(raw)
}

// Deltas yields the text deltas of an event stream until the done marker or
// EOF. An upstream error envelope is yielded once as an *UpstreamError and
// ends the sequence.
func Deltas(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			payload, found := strings.CutPrefix(scanner.Text(), framePrefix)
			if !found {
				continue
			}
			payload = strings.TrimSpace(payload)
			if payload == frameDone {
				return
			}
			frame, ok := ParseFrame([]byte(payload))
			if !ok {
				continue
			}
			if frame.Err != nil {
				yield("", frame.Err)
				return
			}
			if !yield(frame.Delta, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", err)
		}
	}
}
