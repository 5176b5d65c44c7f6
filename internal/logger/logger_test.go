package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRelayAttemptFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf, Service: "gateway"})

	log.LogRelayAttempt("http://127.0.0.1:8000", "/api/chat", "transport_error", time.Millisecond, errors.New("refused"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["service"] != "gateway" {
		t.Errorf("Expected service gateway, got %v", entry["service"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level for failed attempt, got %v", entry["level"])
	}
	if entry["outcome"] != "transport_error" {
		t.Errorf("Unexpected outcome %v", entry["outcome"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}

	log.Component("relay").Warn().Msg("shown")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"relay"`)) {
		t.Errorf("Expected component field, got %q", buf.String())
	}
}
