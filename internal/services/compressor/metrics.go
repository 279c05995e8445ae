package compressor

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	compressions     *prometheus.CounterVec
	duration         prometheus.Histogram
	bytesSaved       prometheus.Counter
	compressionCount prometheus.Gauge
}

// NewMetrics registers the compressor metrics with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		compressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiny_compressions_total",
			Help: "Renditions sent to the compression service, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tiny_compression_duration_seconds",
			Help:    "Time spent compressing one rendition.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		bytesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiny_bytes_saved_total",
			Help: "Bytes saved by compression.",
		}),
		compressionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tiny_monthly_compression_count",
			Help: "Compressions made this month as reported by the service.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.compressions, m.duration, m.bytesSaved, m.compressionCount)
	}
	return m
}
