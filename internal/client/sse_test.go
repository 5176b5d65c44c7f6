package client

import (
	"errors"
	"strings"
	"testing"
)

func collect(t *testing.T, stream string) ([]string, error) {
	t.Helper()
	var deltas []string
	for delta, err := range Deltas(strings.NewReader(stream)) {
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
	return deltas, nil
}

func TestDeltasStopsAtDone(t *testing.T) {
	stream := eventStream(t, "Hel", "lo") + chunk(t, "after done")

	deltas, err := collect(t, stream)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Join(deltas, "") != "Hello" {
		t.Errorf("Expected Hello, got %q", deltas)
	}
}

func TestDeltasSkipsMalformedFrames(t *testing.T) {
	stream := ": keep-alive\n\n" +
		"data: {not json\n\n" +
		"data: {\"choices\":[]}\n\n" +
		"event: ping\n" +
		chunk(t, "ok")

	deltas, err := collect(t, stream)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "ok" {
		t.Errorf("Expected only the valid frame, got %q", deltas)
	}
}

func TestDeltasRaisesErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{name: "string", payload: `{"error":"Codex CLI is not installed"}`, want: "Codex CLI is not installed"},
		{name: "object", payload: `{"error":{"message":"Rate limit exceeded","code":429}}`, want: "Rate limit exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := chunk(t, "partial") + "data: " + tt.payload + "\n\n" + chunk(t, "never")

			deltas, err := collect(t, stream)
			var upstream *UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("Expected UpstreamError, got %v", err)
			}
			if upstream.Message != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, upstream.Message)
			}
			if len(deltas) != 1 || deltas[0] != "partial" {
				t.Errorf("Expected deltas before the error only, got %q", deltas)
			}
		})
	}
}

func TestParseFrameNullErrorIsNotAnError(t *testing.T) {
	frame, ok := ParseFrame([]byte(`{"error":null,"choices":[{"delta":{"content":"x"}}]}`))
	if !ok || frame.Err != nil || frame.Delta != "x" {
		t.Errorf("Unexpected frame %+v ok=%v", frame, ok)
	}
}
