package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIndependentRegistries(t *testing.T) {
	first := New(prometheus.NewRegistry())
	second := New(prometheus.NewRegistry())

	first.RecordRelayAttempt("/api/chat", OutcomeTransportError)
	first.RecordRelayAttempt("/api/chat", OutcomeTransportError)
	second.RecordRelayAttempt("/api/chat", OutcomeResponse)

	if got := testutil.ToFloat64(first.RelayAttemptsTotal.WithLabelValues("/api/chat", OutcomeTransportError)); got != 2 {
		t.Errorf("Expected 2 transport errors, got %v", got)
	}
	if got := testutil.ToFloat64(second.RelayAttemptsTotal.WithLabelValues("/api/chat", OutcomeTransportError)); got != 0 {
		t.Errorf("Expected registries to be independent, got %v", got)
	}
}

func TestRecordRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordRequest("/api/health", 200, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/health", "200")); got != 1 {
		t.Errorf("Expected 1 request, got %v", got)
	}
}
