package client

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func chunk(t *testing.T, text string) string {
	t.Helper()
	data, err := json.Marshal(
		openai.ChatCompletionStreamResponse{
			Choices: []openai.ChatCompletionStreamChoice{
				{Delta: openai.ChatCompletionStreamChoiceDelta{Content: text}},
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return "data: " + string(data) + "\n\n"
}

func eventStream(t *testing.T, deltas ...string) string {
	t.Helper()
	var b strings.Builder
	for _, delta := range deltas {
		b.WriteString(chunk(t, delta))
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
