package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Transmission outcomes recorded on the transmissions counter.
const (
	OutcomeOK           = "ok"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
)

// Metrics holds the simulator's Prometheus instruments.
type Metrics struct {
	samplesGenerated prometheus.Counter
	transmissions    *prometheus.CounterVec
	leaksAcked       prometheus.Counter
}

// NewMetrics registers the simulator metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use their own
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		samplesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartpipex_sim_samples_generated_total",
			Help: "Total fabricated sensor samples.",
		}),
		transmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartpipex_sim_transmissions_total",
			Help: "Send attempts to the ingest API by outcome.",
		}, []string{"outcome"}),
		leaksAcked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartpipex_sim_leaks_acked_total",
			Help: "Samples the ingest API classified as leaks.",
		}),
	}

	reg.MustRegister(m.samplesGenerated, m.transmissions, m.leaksAcked)
	return m
}

// SampleGenerated records one fabricated sample.
func (m *Metrics) SampleGenerated() {
	m.samplesGenerated.Inc()
}

// Transmission records a send attempt with the given outcome.
func (m *Metrics) Transmission(outcome string) {
	m.transmissions.WithLabelValues(outcome).Inc()
}

// LeakAcked records a server-confirmed leak.
func (m *Metrics) LeakAcked() {
	m.leaksAcked.Inc()
}

// Serve exposes /metrics on addr and blocks until ctx is cancelled or
// the listener fails.
func Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("Metrics listener started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
