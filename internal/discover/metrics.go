package discover

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons used as the "reason" label.
const (
	reasonUnresolved = "unresolved"
	reasonMissing    = "missing"
)

// Metrics counts what a run discovered. Each Metrics owns its registry so
// runs never share state.
type Metrics struct {
	reg      *prometheus.Registry
	listed   prometheus.Counter
	resolved prometheus.Counter
	skipped  *prometheus.CounterVec
	records  prometheus.Gauge
	lastRun  prometheus.Gauge
}

// NewMetrics registers the discovery collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		listed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "modelsetup",
			Subsystem: "discovery",
			Name:      "models_listed_total",
			Help:      "Models reported by the model runner",
		}),
		resolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "modelsetup",
			Subsystem: "discovery",
			Name:      "models_resolved_total",
			Help:      "Models resolved to an existing file",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelsetup",
			Subsystem: "discovery",
			Name:      "models_skipped_total",
			Help:      "Models skipped, by reason",
		}, []string{"reason"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "modelsetup",
			Subsystem: "manifest",
			Name:      "records",
			Help:      "Records in the last written manifest",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "modelsetup",
			Subsystem: "discovery",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last discovery run finished",
		}),
	}
	m.reg.MustRegister(m.listed, m.resolved, m.skipped, m.records, m.lastRun)
	// expose both reasons even when zero
	m.skipped.WithLabelValues(reasonUnresolved)
	m.skipped.WithLabelValues(reasonMissing)
	return m
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

// WriteTextfile writes the collected metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func (m *Metrics) observeListed(n int) {
	if m == nil {
		return
	}
	m.listed.Add(float64(n))
}

func (m *Metrics) observeResolved() {
	if m == nil {
		return
	}
	m.resolved.Inc()
}

func (m *Metrics) observeSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeDone(records int) {
	if m == nil {
		return
	}
	m.records.Set(float64(records))
	m.lastRun.SetToCurrentTime()
}
