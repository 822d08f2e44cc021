// Package observability provides drop-in retryx observers: Prometheus
// metric collection and OpenTelemetry spans for retry chains.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/seb7887/retryx"
)

// Metrics is a retryx.Observer that collects Prometheus metrics for retry
// chains. Register it with retryx.WithObserver.
type Metrics struct {
	chainsStarted    prometheus.Counter
	chainsInFlight   prometheus.Gauge
	chainsSettled    *prometheus.CounterVec
	attempts         *prometheus.CounterVec
	attemptsPerChain prometheus.Histogram
	delaySeconds     prometheus.Histogram
}

// NewMetrics creates a new Prometheus metrics observer.
// If registry is nil, uses the default Prometheus registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		chainsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "retry_chains_started_total",
				Help: "Total number of retry chains started",
			},
		),

		chainsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "retry_chains_in_flight",
				Help: "Number of retry chains not yet settled",
			},
		),

		chainsSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retry_chains_settled_total",
				Help: "Total number of retry chains settled, by outcome",
			},
			[]string{"outcome"},
		),

		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retry_attempts_total",
				Help: "Total number of attempts, by result",
			},
			[]string{"result"},
		),

		attemptsPerChain: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "retry_attempts_per_chain",
				Help:    "Attempts a chain made before settling",
				Buckets: []float64{1, 2, 3, 4, 5, 8, 13, 21},
			},
		),

		delaySeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name: "retry_delay_seconds",
				Help: "Granted retry delays in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.01,  // 10ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
					60.0,  // 1m
					300.0, // 5m
				},
			},
		),
	}
}

// ChainStarted increments the started counter and the in-flight gauge.
func (m *Metrics) ChainStarted(_ context.Context, _ retryx.ChainInfo) {
	m.chainsStarted.Inc()
	m.chainsInFlight.Inc()
}

// AttemptFinished counts the attempt under its result label.
func (m *Metrics) AttemptFinished(_ context.Context, info retryx.AttemptInfo) {
	result := "ok"
	if info.Err != nil {
		result = "error"
	}
	m.attempts.WithLabelValues(result).Inc()
}

// DelayScheduled records the granted delay.
func (m *Metrics) DelayScheduled(_ context.Context, info retryx.DelayInfo) {
	m.delaySeconds.Observe(info.Delay.Seconds())
}

// ChainSettled counts the settlement under its outcome label and records how
// many attempts the chain made.
func (m *Metrics) ChainSettled(_ context.Context, info retryx.SettleInfo) {
	m.chainsInFlight.Dec()
	m.chainsSettled.WithLabelValues(string(info.Outcome)).Inc()
	m.attemptsPerChain.Observe(float64(info.Attempts))
}
