// Package metrics collects Prometheus metrics for registry fetches, install
// requests and the catalog size.
//
// A CLI process is short-lived, so nothing is scraped. When a textfile path
// is configured the collected metrics are written there on exit for the
// node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jmgilman/shelf/internal/registry"
)

const namespace = "shelf"

// Metrics holds the collectors of one process. It implements
// registry.Recorder and install.Recorder.
type Metrics struct {
	reg *prometheus.Registry

	FetchTotal     *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	InstallTotal   *prometheus.CounterVec
	CatalogEntries prometheus.Gauge
	SourceFailures *prometheus.GaugeVec
}

// New registers all collectors with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		// outcome: ok | http_error | parse_error | error
		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "fetch_total",
				Help:      "Total number of registry fetches by source and outcome.",
			},
			[]string{"source", "outcome"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of registry fetches in seconds.",
				// 50ms → 100ms → ... → 25.6s
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"source"},
		),

		// op: install | uninstall, outcome: ok | failed
		InstallTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "install_total",
				Help:      "Total number of install and uninstall requests by op and outcome.",
			},
			[]string{"op", "outcome"},
		),

		CatalogEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "catalog",
				Name:      "entries",
				Help:      "Number of entries in the most recently aggregated catalog.",
			},
		),

		SourceFailures: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "source_failing",
				Help:      "1 when the last fetch of a source failed, 0 otherwise.",
			},
			[]string{"source"},
		),
	}
}

// Registry exposes the underlying registry, e.g. for a promhttp handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveFetch records one registry fetch.
func (m *Metrics) ObserveFetch(source, outcome string, elapsed time.Duration) {
	m.FetchTotal.WithLabelValues(source, outcome).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	failing := 0.0
	if outcome != registry.OutcomeOK {
		failing = 1
	}
	m.SourceFailures.WithLabelValues(source).Set(failing)
}

// ObserveInstall records one completed install or uninstall request.
func (m *Metrics) ObserveInstall(op, outcome string) {
	m.InstallTotal.WithLabelValues(op, outcome).Inc()
}

// SetCatalogEntries records the size of the aggregated catalog.
func (m *Metrics) SetCatalogEntries(n int) {
	m.CatalogEntries.Set(float64(n))
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
