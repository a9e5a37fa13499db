package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the board's Prometheus collectors. Each Board registers its
// own set so tests can use private registries.
type Metrics struct {
	registry *prometheus.Registry

	Ticks         prometheus.Counter
	PhaseChanges  prometheus.Counter
	Phase         *prometheus.GaugeVec
	DayProgress   prometheus.Gauge
	ItemProgress  prometheus.Gauge
	StreamClients prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bellboard",
			Name:      "ticks_total",
			Help:      "Clock ticks processed.",
		}),
		PhaseChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bellboard",
			Name:      "phase_changes_total",
			Help:      "Times the day phase or current item changed.",
		}),
		Phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bellboard",
			Name:      "phase",
			Help:      "1 for the current day phase, 0 otherwise.",
		}, []string{"phase"}),
		DayProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bellboard",
			Name:      "day_progress_ratio",
			Help:      "Fraction of the school day elapsed.",
		}),
		ItemProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bellboard",
			Name:      "item_progress_ratio",
			Help:      "Fraction of the active item elapsed, 0 when none is active.",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bellboard",
			Name:      "stream_clients",
			Help:      "Open websocket tick streams.",
		}),
	}
	reg.MustRegister(
		m.Ticks,
		m.PhaseChanges,
		m.Phase,
		m.DayProgress,
		m.ItemProgress,
		m.StreamClients,
		collectors.NewGoCollector(),
	)
	return m
}

// SetPhase marks phase as current and every other known phase as inactive.
func (m *Metrics) SetPhase(current string, all []string) {
	for _, p := range all {
		v := 0.0
		if p == current {
			v = 1
		}
		m.Phase.WithLabelValues(p).Set(v)
	}
}

// Handler exposes the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
