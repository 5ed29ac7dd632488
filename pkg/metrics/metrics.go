package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets covers HTTP handlers and bank status checks, in milliseconds.
var LatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// WaitBuckets covers how long a payer takes to confirm a QR payment, in
// milliseconds, up to a little past the 300s session timeout.
var WaitBuckets = []float64{
	5000, 10000, 15000, 20000, 30000, 45000, 60000,
	90000, 120000, 180000, 240000, 300000, 330000,
}

// Metric describes one collector. Type is one of counter, counter_vec,
// gauge, gauge_vec, histogram, histogram_vec, summary or summary_vec; the
// _vec variants are partitioned by Args.
type Metric struct {
	ID          string
	Name        string
	Description string
	Type        string
	Args        []string
	// Buckets applies to histograms; nil means LatencyBuckets.
	Buckets []float64
}

// NewMetric builds the collector described by m, or nil for an unknown Type.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	buckets := m.Buckets
	if buckets == nil {
		buckets = LatencyBuckets
	}
	counter := prometheus.CounterOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}
	gauge := prometheus.GaugeOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}
	histogram := prometheus.HistogramOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description, Buckets: buckets}
	summary := prometheus.SummaryOpts{Subsystem: subsystem, Name: m.Name, Help: m.Description}

	switch m.Type {
	case "counter":
		return prometheus.NewCounter(counter)
	case "counter_vec":
		return prometheus.NewCounterVec(counter, m.Args)
	case "gauge":
		return prometheus.NewGauge(gauge)
	case "gauge_vec":
		return prometheus.NewGaugeVec(gauge, m.Args)
	case "histogram":
		return prometheus.NewHistogram(histogram)
	case "histogram_vec":
		return prometheus.NewHistogramVec(histogram, m.Args)
	case "summary":
		return prometheus.NewSummary(summary)
	case "summary_vec":
		return prometheus.NewSummaryVec(summary, m.Args)
	}
	return nil
}
