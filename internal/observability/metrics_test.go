package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SampleGenerated()
	m.SampleGenerated()
	m.Transmission(OutcomeOK)
	m.Transmission(OutcomeNetworkError)
	m.Transmission(OutcomeNetworkError)
	m.LeakAcked()

	if got := testutil.ToFloat64(m.samplesGenerated); got != 2 {
		t.Fatalf("expected 2 generated samples, got %v", got)
	}
	if got := testutil.ToFloat64(m.transmissions.WithLabelValues(OutcomeOK)); got != 1 {
		t.Fatalf("expected 1 ok transmission, got %v", got)
	}
	if got := testutil.ToFloat64(m.transmissions.WithLabelValues(OutcomeNetworkError)); got != 2 {
		t.Fatalf("expected 2 network errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.leaksAcked); got != 1 {
		t.Fatalf("expected 1 acked leak, got %v", got)
	}
}
