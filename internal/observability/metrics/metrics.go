// Package metrics exposes prometheus instrumentation for the token
// lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type TokenMetrics struct {
	refreshTotal     *prometheus.CounterVec
	sweepRuns        prometheus.Counter
	sweepRecords     *prometheus.CounterVec
	exchangeDuration prometheus.Histogram
}

func NewTokenMetrics() *TokenMetrics {
	return newTokenMetrics(prometheus.DefaultRegisterer)
}

// NewTestTokenMetrics registers against a throwaway registry so parallel
// tests do not collide on the default one.
func NewTestTokenMetrics() *TokenMetrics {
	return newTokenMetrics(prometheus.NewRegistry())
}

func newTokenMetrics(reg prometheus.Registerer) *TokenMetrics {
	factory := promauto.With(reg)
	return &TokenMetrics{
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "token_refresh_total",
			Help: "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		sweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "token_sweep_runs_total",
			Help: "Number of refresh sweeps executed.",
		}),
		sweepRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "token_sweep_records_total",
			Help: "Records processed by refresh sweeps, by outcome.",
		}, []string{"outcome"}),
		exchangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "token_exchange_duration_seconds",
			Help:    "Duration of provider token-endpoint calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *TokenMetrics) IncRefresh(outcome string) {
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

func (m *TokenMetrics) IncSweepRun() {
	m.sweepRuns.Inc()
}

func (m *TokenMetrics) IncSweepRecord(outcome string) {
	m.sweepRecords.WithLabelValues(outcome).Inc()
}

func (m *TokenMetrics) ObserveExchange(d time.Duration) {
	m.exchangeDuration.Observe(d.Seconds())
}
