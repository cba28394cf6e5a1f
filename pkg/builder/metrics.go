package builder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
)

const (
	metricsNamespace = "btcz"
	subsystem        = "tx_builder"
)

// Metrics records build outcomes and timings. A nil *Metrics records
// nothing.
type Metrics struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	stageDuration *prometheus.HistogramVec
}

// NewMetrics registers the builder metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "builds_total",
				Help:      "Total number of builds by result",
			},
			[]string{"result"},
		),
		buildDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "build_duration_seconds",
				Help:      "Time taken by a complete build",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each builder stage",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"stage"},
		),
	}
}

func (m *Metrics) observeStage(s State, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(s.String()).Observe(d.Seconds())
}

func (m *Metrics) observeBuild(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(txerr.KindOf(err))
		if result == "" {
			result = "unknown"
		}
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(d.Seconds())
}
