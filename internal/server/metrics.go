package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the battle service.
type Metrics struct {
	registry *prometheus.Registry

	// BattlesTotal counts resolved battles by outcome ("resolved", "error").
	BattlesTotal *prometheus.CounterVec
	// BattleDuration observes end-to-end Resolve latency in seconds.
	BattleDuration prometheus.Histogram
	// RequestsTotal counts HTTP requests by route and status class.
	RequestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all instruments on a fresh registry.
//
// Postcondition: Returns a non-nil Metrics whose Handler serves the
// registered instruments plus Go runtime collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		BattlesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealbrawl_battles_total",
				Help: "Number of battle resolutions by outcome.",
			},
			[]string{"outcome"},
		),
		BattleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealbrawl_battle_duration_seconds",
				Help:    "Battle resolution duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealbrawl_http_requests_total",
				Help: "Number of HTTP requests by route and status class.",
			},
			[]string{"route", "status"},
		),
	}
	reg.MustRegister(m.BattlesTotal, m.BattleDuration, m.RequestsTotal)
	return m
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
